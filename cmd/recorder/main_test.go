package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vedantwpatil/FocusFrame/internal/capture"
	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/editing"
	"github.com/vedantwpatil/FocusFrame/internal/recording"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOpenProject(t *testing.T) {
	cfg := config.NewConfig()
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "demo.mp4")

	// no project on disk: a fresh one for the video
	p, err := openProject(cfg, videoPath, "")
	if err != nil {
		t.Fatalf("openProject failed: %v", err)
	}
	if p.Source != videoPath || len(p.Effects) != 0 {
		t.Errorf("fresh project = %+v", p)
	}

	// the default project next to the video wins once it exists
	saved := editing.NewProject("", cfg)
	saved.Effects = []editing.ZoomEffect{{Start: 1, End: 3, Scale: 2, TargetX: 0.5, TargetY: 0.5}}
	if err := saved.Save(projectPathFor(videoPath)); err != nil {
		t.Fatal(err)
	}
	p, err = openProject(cfg, videoPath, "")
	if err != nil {
		t.Fatalf("openProject failed: %v", err)
	}
	if p.Source != videoPath || len(p.Effects) != 1 {
		t.Errorf("default project not loaded: %+v", p)
	}

	// a project passed as input must name its source
	if _, err := openProject(cfg, projectPathFor(videoPath), ""); err == nil {
		t.Error("expected an error for a project without a source")
	}

	if _, err := openProject(cfg, videoPath, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing project file")
	}
}

func TestExportOptionsApply(t *testing.T) {
	p := editing.NewProject("in.mp4", config.NewConfig())
	exportOptions{output: "out.mkv", quality: "low", format: "mkv", resolution: "1280x720", noCursor: true}.apply(p)

	if p.Output != "out.mkv" || p.Quality != "low" || p.Format != "mkv" || p.Resolution != "1280x720" {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.Cursor.IsVisible() {
		t.Error("cursor should be hidden")
	}

	// empty options leave the project alone
	q := editing.NewProject("in.mp4", config.NewConfig())
	exportOptions{}.apply(q)
	if q.Quality != "high" || !q.Cursor.IsVisible() {
		t.Errorf("defaults changed: %+v", q)
	}
}

func TestSessionInputsWithoutLog(t *testing.T) {
	clicks, cursor := sessionInputs(filepath.Join(t.TempDir(), "none.mp4"))
	if clicks != nil || cursor != nil {
		t.Error("expected no inputs without a session log")
	}

	bad := filepath.Join(t.TempDir(), "bad.mp4")
	if err := os.WriteFile(bad+".session", []byte{0xc1}, 0644); err != nil {
		t.Fatal(err)
	}
	if clicks, _ := sessionInputs(bad); clicks != nil {
		t.Error("a corrupt session log should be ignored")
	}
}

func TestRecordOptions(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Recording.Display = 2

	tests := []struct {
		name       string
		opts       recording.Options
		displaySet bool
		display    int
		kind       capture.Kind
	}{
		{"configured monitor", recording.Options{}, false, 2, capture.Monitor},
		{"flag wins", recording.Options{Display: 0}, true, 0, capture.Monitor},
		{"flag index", recording.Options{Display: 1}, true, 1, capture.Monitor},
		{"window by pid", recording.Options{PID: 4242}, false, 2, capture.Window},
	}
	for _, tt := range tests {
		got := recordOptions(cfg, tt.opts, tt.displaySet)
		if got.Display != tt.display || got.Kind != tt.kind {
			t.Errorf("%s: recordOptions() = display %d kind %v, want %d %v", tt.name, got.Display, got.Kind, tt.display, tt.kind)
		}
	}
}
