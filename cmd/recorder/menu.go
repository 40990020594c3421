package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/vedantwpatil/FocusFrame/internal/config"
	"github.com/vedantwpatil/FocusFrame/internal/recording"
)

var errExit = errors.New("exit requested")

// Application is the interactive menu shown when no command is given
type Application struct {
	config   *config.Config
	recorder *recording.Recorder
	input    *bufio.Reader
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	session *recording.RecordingSession
}

func NewApplication(cfg *config.Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		config:   cfg,
		recorder: recording.NewRecorder(cfg),
		input:    bufio.NewReader(os.Stdin),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (app *Application) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go app.handleSignals(sigChan)

	for {
		err := app.showMenu()
		if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
			return app.cleanup()
		}
		if err != nil {
			fmt.Println("Error:", err)
		}
	}
}

func (app *Application) showMenu() error {
	fmt.Println("\nCommands:")
	fmt.Println("1. Start recording")
	fmt.Println("2. Stop recording")
	fmt.Println("3. Export last recording")
	fmt.Println("4. Exit")
	fmt.Print("Choose an option: ")

	choice, err := app.readLine()
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		return app.startRecording()
	case "2":
		return app.stopRecording()
	case "3":
		return app.exportLast()
	case "4":
		return errExit
	default:
		fmt.Println("Invalid option")
		return nil
	}
}

func (app *Application) readLine() (string, error) {
	line, err := app.input.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (app *Application) current() *recording.RecordingSession {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.session
}

func (app *Application) startRecording() error {
	if s := app.current(); s != nil && s.IsRecording() {
		fmt.Println("Already recording")
		return nil
	}

	fmt.Print("Enter the name you wish to save the file under (empty for a timestamp, no extension): ")
	name, err := app.readLine()
	if err != nil {
		return fmt.Errorf("failed to read file name: %w", err)
	}
	var opts recording.Options
	if name != "" {
		opts.Output = filepath.Join(app.config.Recording.OutputDir, name+".mp4")
	}

	s, err := app.recorder.Start(app.ctx, recordOptions(app.config, opts, false))
	if err != nil {
		return err
	}
	app.mu.Lock()
	app.session = s
	app.mu.Unlock()

	fmt.Printf("Recording to %s. Triple-click to mark a zoom, Ctrl+C or option 2 to stop.\n", s.Output)
	return nil
}

func (app *Application) stopRecording() error {
	s := app.current()
	if s == nil || !s.IsRecording() {
		fmt.Println("Not recording")
		return nil
	}
	fmt.Println("Stopping recording...")
	if err := s.Stop(); err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	printSummary(s)
	return nil
}

func (app *Application) exportLast() error {
	s := app.current()
	if s == nil || !s.IsDone() {
		fmt.Println("No recording available for editing")
		return nil
	}
	return runExport(app.ctx, app.config, s.Output, exportOptions{})
}

func (app *Application) cleanup() error {
	defer app.cancel()
	if s := app.current(); s != nil && s.IsRecording() {
		fmt.Println("Stopping recording...")
		if err := s.Stop(); err != nil {
			return err
		}
		printSummary(s)
	}
	fmt.Println("Exiting...")
	return nil
}

// handleSignals stops a running recording on the first interrupt and exits
// when nothing is being recorded.
func (app *Application) handleSignals(sigChan chan os.Signal) {
	for sig := range sigChan {
		fmt.Printf("\nReceived signal: %v\n", sig)
		if s := app.current(); s != nil && s.IsRecording() {
			fmt.Println("Stopping recording...")
			if err := s.Stop(); err != nil {
				slog.Error("error stopping recording", "error", err)
				continue
			}
			printSummary(s)
			fmt.Print("Choose an option: ")
			continue
		}
		fmt.Println("Exiting application...")
		app.cancel()
		os.Exit(0)
	}
}
