package tracking

import "sync"

type GestureFlags uint8

const (
	TripleClick GestureFlags = 1 << iota
)

func (f GestureFlags) String() string {
	if f&TripleClick != 0 {
		return "triple-click"
	}
	return "none"
}

// ClickEvent is an accepted gesture. Coordinates are normalized to the
// capture target and the timestamp is relative to the session start.
type ClickEvent struct {
	TimestampMs int64        `msgpack:"t" yaml:"t"`
	X           float64      `msgpack:"x" yaml:"x"`
	Y           float64      `msgpack:"y" yaml:"y"`
	Flags       GestureFlags `msgpack:"flags" yaml:"flags"`
}

func (c ClickEvent) Seconds() float64 {
	return float64(c.TimestampMs) / 1000
}

type CursorSample struct {
	TimestampMs int64   `msgpack:"t" yaml:"t"`
	X           float64 `msgpack:"x" yaml:"x"`
	Y           float64 `msgpack:"y" yaml:"y"`
}

// Log holds the click and cursor streams of one recording session.
// Writers are the input goroutines; readers should wait until the session
// has stopped, Snapshot only guarantees a consistent copy.
type Log struct {
	mu     sync.Mutex
	clicks []ClickEvent
	cursor []CursorSample
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clicks = nil
	l.cursor = nil
}

func (l *Log) AddClick(c ClickEvent) {
	l.mu.Lock()
	l.clicks = append(l.clicks, c)
	l.mu.Unlock()
}

func (l *Log) AddSample(s CursorSample) {
	l.mu.Lock()
	l.cursor = append(l.cursor, s)
	l.mu.Unlock()
}

// Snapshot returns copies of both streams
func (l *Log) Snapshot() ([]ClickEvent, []CursorSample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	clicks := make([]ClickEvent, len(l.clicks))
	copy(clicks, l.clicks)
	cursor := make([]CursorSample, len(l.cursor))
	copy(cursor, l.cursor)
	return clicks, cursor
}
