package client

import (
	"testing"

	"github.com/mwantia/gotagger/internal/dataset"
	"github.com/stretchr/testify/assert"
)

func TestRenderTags(t *testing.T) {
	tags := []dataset.TagView{
		{Name: "cat", Color: dataset.TagColor{Background: "#eeeeee", Foreground: "#333333"}},
		{Name: "outdoor", Color: dataset.TagColor{Background: "#00ff00", Foreground: "#000000"}},
	}

	assert.Equal(t, "cat, outdoor", renderTags(tags, false))
	assert.Equal(t, "", renderTags(nil, false))

	colored := renderTags(tags, true)
	assert.Contains(t, colored, "cat")
	assert.Contains(t, colored, "outdoor")
}
