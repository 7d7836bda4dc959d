package chroma_test

import (
	"testing"

	"github.com/fwojciec/csvstory/chroma"
	"github.com/stretchr/testify/assert"
)

func TestDetector_DetectFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"out/analysis.json", "JSON"},
		{"/home/u/.config/csvstory/config.yaml", "YAML"},
		{"story.md", "markdown"},
		{"data/grades.unknownext", ""},
	}
	d := chroma.NewDetector()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, d.DetectFromPath(tt.path))
		})
	}
}
