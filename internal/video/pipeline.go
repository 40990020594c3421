package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/editing"
)

// Exporter renders an editing plan into a finished video
type Exporter struct {
	config   *config.Config
	encoder  *Encoder
	prober   Prober
	progress ProgressReporter
	logger   *slog.Logger
}

func NewExporter(cfg *config.Config, runner Runner, prober Prober) *Exporter {
	return &Exporter{
		config:  cfg,
		encoder: NewEncoder(runner, cfg.Export.Hardware),
		prober:  prober,
		logger:  slog.With("component", "exporter"),
	}
}

func (x *Exporter) SetProgressReporter(p ProgressReporter) {
	x.progress = p
}

// Probe returns the source metadata the planner needs
func (x *Exporter) Probe(path string) (MediaInfo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return MediaInfo{}, fmt.Errorf("input file does not exist: %s", path)
	}
	return x.prober.Probe(path)
}

// ExportArgs builds everything before the codec selection
func ExportArgs(plan *editing.Plan, graph string) []string {
	return []string{
		"-hide_banner",
		"-ss", fmt.Sprintf("%.3f", plan.TrimStart),
		"-t", fmt.Sprintf("%.3f", plan.Duration),
		"-i", plan.Project.Source,
		"-filter_complex", graph,
		"-map", "[out]",
		"-an",
	}
}

// Graph builds the filter graph for plan on a source described by info
func Graph(plan *editing.Plan, info MediaInfo) string {
	outW, outH := plan.Width, plan.Height
	if outW == 0 || outH == 0 {
		outW, outH = info.Width&^1, info.Height&^1
	}
	fps := info.FPS
	if fps <= 0 {
		fps = 30
	}

	opts := GraphOptions{
		SourceWidth:  info.Width,
		SourceHeight: info.Height,
		OutputWidth:  outW,
		OutputHeight: outH,
		FPS:          fps,
		Padding:      plan.Project.Padding,
		Background:   plan.Project.Background,
		Scale:        plan.Timeline.ScaleExpr(),
		PanX:         plan.Timeline.PanXExpr(),
		PanY:         plan.Timeline.PanYExpr(),
	}
	if plan.HasCursor {
		opts.Cursor = &CursorOverlay{
			X:     plan.CursorX.Expr("t"),
			Y:     plan.CursorY.Expr("t"),
			Size:  plan.Project.Cursor.Size,
			Color: plan.Project.Cursor.Color,
			Style: plan.Project.Cursor.Style,
		}
	}
	return BuildFilterGraph(opts)
}

func containerArgs(format string) []string {
	switch format {
	case "mp4", "mov":
		return []string{"-movflags", "+faststart"}
	}
	return nil
}

// Export renders plan to the project's output path and returns the codec used
func (x *Exporter) Export(ctx context.Context, plan *editing.Plan, info MediaInfo) (Codec, error) {
	output := plan.Project.OutputPath()
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Codec{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	graph := Graph(plan, info)
	x.logger.Debug("filter graph", "bytes", len(graph), "effects", len(plan.Timeline.Effects))

	job := EncodeJob{
		Args:    ExportArgs(plan, graph),
		Output:  output,
		Quality: plan.Project.Quality,
		Extra:   containerArgs(plan.Project.Format),
	}
	if x.progress != nil && plan.Duration > 0 {
		total := plan.Duration
		job.OnProgress = func(d time.Duration) {
			x.progress.Report(d.Seconds() / total)
		}
	}

	codec, err := x.encoder.Encode(ctx, job)
	if err != nil {
		if x.progress != nil {
			x.progress.ReportError(err)
		}
		return codec, fmt.Errorf("failed to export %s: %w", output, err)
	}
	if x.progress != nil {
		x.progress.ReportComplete()
	}
	x.logger.Info("export finished", "output", output, "encoder", codec.Name)
	return codec, nil
}
