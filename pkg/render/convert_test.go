package render

import (
	"testing"

	"github.com/velopane/velopane/pkg/velocity"
)

func TestConvertForPassThrough(t *testing.T) {
	svg := []byte("<svg/>")

	tests := []struct {
		name string
		save string
	}{
		{"no save target", ""},
		{"svg target", "figure.svg"},
		{"no extension", "figures/panel"},
		{"foreign extension", "figure.v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertFor(svg, tt.save, velocity.DefaultDPI)
			if err != nil {
				t.Fatalf("ConvertFor: %v", err)
			}
			if string(got) != string(svg) {
				t.Errorf("got %q, want input unchanged", got)
			}
		})
	}
}
