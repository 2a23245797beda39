package render

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/velopane/velopane/pkg/velocity"
)

// rsvgTool is the librsvg CLI backing PNG and PDF export.
const rsvgTool = "rsvg-convert"

// ConvertFor converts an SVG artifact to match a save target's extension.
// Unknown or missing extensions (including .svg) return the input unchanged.
// The figure's dpi sets the raster scale relative to the screen default.
func ConvertFor(svg []byte, save string, dpi float64) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(save)) {
	case ".png":
		return ToPNG(svg, dpi/velocity.DefaultDPI)
	case ".pdf":
		return ToPDF(svg)
	}
	return svg, nil
}

// ToPDF converts SVG bytes to PDF.
func ToPDF(svg []byte) ([]byte, error) {
	return runRSVG(svg, "-f", "pdf")
}

// ToPNG converts SVG bytes to PNG at the given scale factor; 2 doubles the
// pixel resolution. Non-positive scales fall back to 1.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return runRSVG(svg, "-f", "png", "-z", strconv.FormatFloat(scale, 'f', 2, 64))
}

// runRSVG pipes the SVG through rsvg-convert.
func runRSVG(svg []byte, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(rsvgTool); err != nil {
		return nil, fmt.Errorf("%s not found; install librsvg (apt install librsvg2-bin, brew install librsvg)", rsvgTool)
	}

	var out, stderr bytes.Buffer
	cmd := exec.Command(rsvgTool, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", rsvgTool, err, stderr.String())
	}
	return out.Bytes(), nil
}
