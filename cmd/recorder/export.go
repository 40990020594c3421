package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/editing"
	"github.com/vedantwpatil/FocusFrame/internal/recording"
	"github.com/vedantwpatil/FocusFrame/internal/tracking"
	"github.com/vedantwpatil/FocusFrame/internal/video"
)

const projectExt = ".yaml"

type exportOptions struct {
	project    string
	output     string
	quality    string
	format     string
	resolution string
	noCursor   bool
}

func exportCmd(a *app) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <video|project.yaml>",
		Short: "Render a recording with its zoom effects",
		Long: `Export re-encodes a recording with zoom-and-pan effects and a cursor overlay.

The effects come from a project file when one is given or found next to the
video (<video>.yaml); otherwise they are generated from the triple clicks in
the recording's session log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runExport(ctx, a.config, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "project file with trim and effects")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <video>_edited.<format>)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "high, medium or low")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "mp4, mov or mkv")
	cmd.Flags().StringVarP(&opts.resolution, "resolution", "r", "", "output size as WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&opts.noCursor, "no-cursor", false, "do not draw the cursor overlay")

	return cmd
}

func runExport(ctx context.Context, cfg *config.Config, input string, opts exportOptions) error {
	project, err := openProject(cfg, input, opts.project)
	if err != nil {
		return err
	}
	opts.apply(project)

	clicks, cursor := sessionInputs(project.Source)

	exporter := video.NewExporter(cfg, video.NewExecRunner(), video.VidioProber{})
	info, err := exporter.Probe(project.Source)
	if err != nil {
		return err
	}

	plan, err := editing.NewEditor(cfg).Plan(project, info.Duration, clicks, cursor)
	if err != nil {
		return err
	}
	for _, skipped := range plan.Timeline.Skipped {
		fmt.Printf("Warning: %v\n", skipped)
	}

	fmt.Printf("Exporting %s (%.1fs, %d zoom effects)\n", project.Source, plan.Duration, len(plan.Timeline.Effects))
	exporter.SetProgressReporter(video.NewProgressBar("Exporting"))
	codec, err := exporter.Export(ctx, plan, info)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s (encoder %s)\n", project.OutputPath(), codec.Name)
	return nil
}

func (o exportOptions) apply(p *editing.Project) {
	if o.output != "" {
		p.Output = o.output
	}
	if o.quality != "" {
		p.Quality = o.quality
	}
	if o.format != "" {
		p.Format = o.format
	}
	if o.resolution != "" {
		p.Resolution = o.resolution
	}
	if o.noCursor {
		hidden := false
		p.Cursor.Visible = &hidden
	}
}

func isProjectFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// projectPathFor is where the project of a recording is kept by default
func projectPathFor(videoPath string) string {
	return videoPath + projectExt
}

// openProject resolves input into a project: an explicit project file, a
// project path given as input, the default project next to the video, or a
// fresh project for the video.
func openProject(cfg *config.Config, input, projectPath string) (*editing.Project, error) {
	path := projectPath
	switch {
	case path != "":
	case isProjectFile(input):
		path = input
	default:
		if _, err := os.Stat(projectPathFor(input)); err == nil {
			path = projectPathFor(input)
		}
	}

	if path == "" {
		return editing.NewProject(input, cfg), nil
	}

	project, err := editing.LoadProject(path)
	if err != nil {
		return nil, err
	}
	if project.Source == "" {
		if isProjectFile(input) {
			return nil, fmt.Errorf("project %s names no source video", path)
		}
		project.Source = input
	}
	slog.Debug("loaded project", "path", path, "effects", len(project.Effects))
	return project, nil
}

// sessionInputs reads the click and cursor logs of a recording. Videos
// without a session log export with no generated effects and no cursor.
func sessionInputs(videoPath string) ([]tracking.ClickEvent, []tracking.CursorSample) {
	log, err := recording.LoadSessionLog(videoPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("no session log for recording", "video", videoPath)
		} else {
			slog.Warn("ignoring session log", "video", videoPath, "error", err)
		}
		return nil, nil
	}
	return log.Clicks, log.Cursor
}
