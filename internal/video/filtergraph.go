package video

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CursorOverlay draws a synthetic cursor at a normalized position. X and Y
// are expressions in t.
type CursorOverlay struct {
	X     string
	Y     string
	Size  int
	Color string
	Style string // dot or ring
}

// GraphOptions describes one export render
type GraphOptions struct {
	SourceWidth  int
	SourceHeight int
	OutputWidth  int
	OutputHeight int
	FPS          float64
	Padding      float64
	Background   string

	// Expressions in t
	Scale string
	PanX  string
	PanY  string

	Cursor *CursorOverlay
}

// BaseScale fits the source inside the padded output frame
func BaseScale(srcW, srcH, outW, outH int, padding float64) float64 {
	if srcW <= 0 || srcH <= 0 {
		return 1
	}
	inner := 1 - 2*padding
	return math.Min(float64(outW)*inner/float64(srcW), float64(outH)*inner/float64(srcH))
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

// quote protects the commas of an expression from the filtergraph parser.
// Generated expressions never contain quotes.
func quote(expr string) string {
	return "'" + expr + "'"
}

func cursorAlpha(style string) string {
	d := "hypot(X-W/2,Y-H/2)"
	if style == "ring" {
		return fmt.Sprintf("255*lte(%s,W/2)*gte(%s,W/2-max(2,W/8))", d, d)
	}
	return fmt.Sprintf("255*lte(%s,W/2)", d)
}

// BuildFilterGraph assembles the -filter_complex text. The cursor is drawn on
// the source before the zoom so it scales with it; the zoomed frame is then
// placed on the background canvas so that the pan point lands in the centre.
// The final pad is labelled [out].
func BuildFilterGraph(opts GraphOptions) string {
	fps := num(opts.FPS)
	base := num(BaseScale(opts.SourceWidth, opts.SourceHeight, opts.OutputWidth, opts.OutputHeight, opts.Padding))
	background := opts.Background
	if background == "" {
		background = "black"
	}

	var chains []string
	src := "[0:v]"

	if c := opts.Cursor; c != nil {
		size := max(c.Size&^1, 2)
		color := c.Color
		if color == "" {
			color = "white"
		}
		chains = append(chains,
			fmt.Sprintf("color=c=%s:s=%dx%d:r=%s,format=rgba,geq=r='r(X,Y)':g='g(X,Y)':b='b(X,Y)':a=%s[cursor]",
				color, size, size, fps, quote(cursorAlpha(c.Style))),
			fmt.Sprintf("%s[cursor]overlay=x=%s:y=%s:eval=frame:shortest=1[marked]",
				src, quote("("+c.X+")*W-w/2"), quote("("+c.Y+")*H-h/2")),
		)
		src = "[marked]"
	}

	zoom := "(" + opts.Scale + ")"
	chains = append(chains,
		fmt.Sprintf("%sscale=w=%s:h=%s:eval=frame[zoomed]",
			src,
			quote("trunc(iw*"+base+"*"+zoom+"/2)*2"),
			quote("trunc(ih*"+base+"*"+zoom+"/2)*2")),
		fmt.Sprintf("color=c=%s:s=%dx%d:r=%s[canvas]",
			background, opts.OutputWidth, opts.OutputHeight, fps),
		fmt.Sprintf("[canvas][zoomed]overlay=x=%s:y=%s:eval=frame:shortest=1,format=yuv420p[out]",
			quote("(W-w)/2+(0.5-("+opts.PanX+"))*w"),
			quote("(H-h)/2+(0.5-("+opts.PanY+"))*h")),
	)
	return strings.Join(chains, ";")
}
