package recording

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vedantwpatil/FocusFrame/internal/capture"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
)

const SidecarExt = ".session"

// SessionLog is everything export needs to know about a finished recording
type SessionLog struct {
	ID        uuid.UUID               `msgpack:"id"`
	Target    capture.Target          `msgpack:"target"`
	FPS       int                     `msgpack:"fps"`
	StartedAt time.Time               `msgpack:"started_at"`
	Duration  time.Duration           `msgpack:"duration"`
	Output    string                  `msgpack:"output"`
	Frames    uint64                  `msgpack:"frames"`
	Clicks    []tracking.ClickEvent   `msgpack:"clicks"`
	Cursor    []tracking.CursorSample `msgpack:"cursor"`
}

// SidecarPath returns where the session log of a recording lives
func SidecarPath(output string) string {
	if strings.HasSuffix(output, SidecarExt) {
		return output
	}
	return output + SidecarExt
}

func (l *SessionLog) Save(path string) error {
	data, err := msgpack.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode session log: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}

// LoadSessionLog reads the sidecar for a recording. path may name either the
// video or the sidecar itself.
func LoadSessionLog(path string) (*SessionLog, error) {
	data, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}
	var l SessionLog
	if err := msgpack.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to decode session log: %w", err)
	}
	return &l, nil
}
