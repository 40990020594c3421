package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedantwpatil/FocusFrame/internal/capture"
	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/recording"
)

func recordCmd(a *app) *cobra.Command {
	var (
		opts     recording.Options
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a monitor or window until Ctrl+C",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return record(ctx, recording.NewRecorder(a.config), recordOptions(a.config, opts, cmd.Flags().Changed("display")), duration)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default <output_dir>/recording_<timestamp>.mp4)")
	cmd.Flags().IntVarP(&opts.Display, "display", "d", 0, "monitor index to record (default recording.display)")
	cmd.Flags().IntVarP(&opts.PID, "pid", "p", 0, "record the window of this process instead of a monitor")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop automatically after this long")

	return cmd
}

// recordOptions fills in what the command line left unset. The monitor comes
// from recording.display unless --display was given.
func recordOptions(cfg *config.Config, opts recording.Options, displaySet bool) recording.Options {
	if !displaySet {
		opts.Display = cfg.Recording.Display
	}
	if opts.PID > 0 {
		opts.Kind = capture.Window
	}
	return opts
}

// record runs one session until ctx is cancelled, the duration elapses or
// capture fails, then prints where the recording went.
func record(ctx context.Context, recorder *recording.Recorder, opts recording.Options, duration time.Duration) error {
	session, err := recorder.Start(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Recording %s %v to %s. Press Ctrl+C to stop.\n", session.Target.Kind, session.Target.Bounds, session.Output)

	var timeout <-chan time.Time
	if duration > 0 {
		timeout = time.After(duration)
	}
	select {
	case <-ctx.Done():
	case <-timeout:
	case <-session.Done():
	}

	fmt.Println("\nStopping recording...")
	if err := session.Stop(); err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	printSummary(session)
	return nil
}

func printSummary(s *recording.RecordingSession) {
	stats := s.Stats()
	clicks, cursor := s.Log()
	fmt.Printf("Saved %s\n", s.Output)
	fmt.Printf("  Duration:   %v\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Frames:     %d written, %d captured, %d duplicated\n", stats.Written, stats.Captured, stats.Duplicated)
	fmt.Printf("  Zoom marks: %d\n", len(clicks))
	fmt.Printf("  Cursor:     %d samples\n", len(cursor))
	fmt.Printf("  Session:    %s\n", recording.SidecarPath(s.Output))
}
