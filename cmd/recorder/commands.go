package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/editing"
	"github.com/vedantwpatil/FocusFrame/internal/recording"
	"github.com/vedantwpatil/FocusFrame/internal/video"
)

func trimCmd(a *app) *cobra.Command {
	var start, end float64

	cmd := &cobra.Command{
		Use:   "trim <input> <output>",
		Short: "Cut a time range out of a video without re-encoding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := video.NewProcessor(video.NewExecRunner())
			if err := p.Trim(cmd.Context(), args[0], args[1], start, end); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "start of the kept range in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "end of the kept range in seconds (0 keeps the rest)")

	return cmd
}

func clicksCmd(a *app) *cobra.Command {
	var writeProject bool

	cmd := &cobra.Command{
		Use:   "clicks <video>",
		Short: "List the zoom marks recorded with a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := recording.LoadSessionLog(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Session %s\n", session.ID)
			fmt.Printf("  Target:   %s %v at %d fps\n", session.Target.Kind, session.Target.Bounds, session.FPS)
			fmt.Printf("  Duration: %v, %d frames\n", session.Duration, session.Frames)
			fmt.Printf("  Cursor:   %d samples\n", len(session.Cursor))
			fmt.Printf("  Clicks:   %d\n", len(session.Clicks))
			for i, c := range session.Clicks {
				fmt.Printf("    %2d. %8.3fs  (%.3f, %.3f)  %s\n", i+1, c.Seconds(), c.X, c.Y, c.Flags)
			}

			if writeProject {
				return writeClickProject(a.config, args[0], session)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeProject, "write-project", false, "write <video>.yaml with one zoom effect per mark")

	return cmd
}

// writeClickProject saves the generated effects as an editable project
func writeClickProject(cfg *config.Config, videoPath string, session *recording.SessionLog) error {
	path := projectPathFor(videoPath)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("project %s already exists", path)
	}

	project := editing.NewProject(videoPath, cfg)
	project.Effects = editing.EffectsFromClicks(session.Clicks, cfg.Gesture.Cooldown, cfg.Zoom.DefaultScale, cfg.Zoom.DefaultEasing)
	if err := project.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s with %d effects\n", path, len(project.Effects))
	return nil
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
