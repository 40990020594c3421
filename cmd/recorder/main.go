package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedantwpatil/FocusFrame/internal/config"
)

var Version = "dev"

// app carries what every command shares once the root flags are parsed
type app struct {
	configPath string
	verbose    bool
	config     *config.Config
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "recorder",
		Short: "Record the screen and export it with click-driven zoom",
		Long: `FocusFrame records a monitor or window together with your clicks and
cursor movement. Triple-click during a recording to mark a zoom; export
turns the marks into smooth zoom-and-pan effects.

Run without a command for the interactive menu.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewApplication(a.config).Run()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.focusframe/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(recordCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(trimCmd(a))
	rootCmd.AddCommand(clicksCmd(a))
	rootCmd.AddCommand(configCmd(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.config = cfg

	level := parseLevel(cfg.Log.Level)
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// parseLevel maps a config level name onto slog, defaulting to info
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}
