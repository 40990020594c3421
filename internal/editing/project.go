package editing

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vedantwpatil/FocusFrame/internal/config"
)

// CursorStyle controls the synthetic cursor drawn on export
type CursorStyle struct {
	Visible *bool  `yaml:"visible,omitempty"`
	Style   string `yaml:"style,omitempty"` // dot, ring
	Size    int    `yaml:"size,omitempty"`
	Color   string `yaml:"color,omitempty"`
}

func (c CursorStyle) IsVisible() bool {
	return c.Visible == nil || *c.Visible
}

// Project is the editable description of one export
type Project struct {
	Source     string       `yaml:"source"`
	Output     string       `yaml:"output,omitempty"`
	Trim       Trim         `yaml:"trim"`
	Effects    []ZoomEffect `yaml:"effects"`
	Cursor     CursorStyle  `yaml:"cursor"`
	Background string       `yaml:"background,omitempty"`
	Padding    float64      `yaml:"padding,omitempty"`
	Resolution string       `yaml:"resolution,omitempty"` // WIDTHxHEIGHT, empty keeps the source size
	Quality    string       `yaml:"quality,omitempty"`
	Format     string       `yaml:"format,omitempty"`
}

// NewProject starts a project for source with export settings from cfg
func NewProject(source string, cfg *config.Config) *Project {
	visible := cfg.Export.CursorVisible
	return &Project{
		Source: source,
		Cursor: CursorStyle{
			Visible: &visible,
			Style:   cfg.Export.CursorStyle,
			Size:    cfg.Export.CursorSize,
			Color:   cfg.Export.CursorColor,
		},
		Background: cfg.Export.Background,
		Padding:    cfg.Export.Padding,
		Quality:    cfg.Export.Quality,
		Format:     cfg.Export.Format,
	}
}

// ApplyDefaults fills unset fields from cfg
func (p *Project) ApplyDefaults(cfg *config.Config) {
	if p.Cursor.Visible == nil {
		visible := cfg.Export.CursorVisible
		p.Cursor.Visible = &visible
	}
	if p.Cursor.Style == "" {
		p.Cursor.Style = cfg.Export.CursorStyle
	}
	if p.Cursor.Size == 0 {
		p.Cursor.Size = cfg.Export.CursorSize
	}
	if p.Cursor.Color == "" {
		p.Cursor.Color = cfg.Export.CursorColor
	}
	if p.Background == "" {
		p.Background = cfg.Export.Background
	}
	if p.Quality == "" {
		p.Quality = cfg.Export.Quality
	}
	if p.Format == "" {
		p.Format = cfg.Export.Format
	}
}

// OutputPath returns the export destination, defaulting to
// <source>_edited.<format> next to the source.
func (p *Project) OutputPath() string {
	if p.Output != "" {
		return p.Output
	}
	format := p.Format
	if format == "" {
		format = "mp4"
	}
	base := strings.TrimSuffix(p.Source, filepath.Ext(p.Source))
	return base + "_edited." + format
}

// ParseResolution parses WIDTHxHEIGHT. Empty input returns 0, 0.
func ParseResolution(s string) (width, height int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid resolution %q: want WIDTHxHEIGHT", s)
	}
	width, err = strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution width %q: %w", w, err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q: dimensions must be positive", s)
	}
	return width &^ 1, height &^ 1, nil
}

func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", path, err)
	}
	return &p, nil
}

func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}
