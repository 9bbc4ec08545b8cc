package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/stash-bot/internal/models"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Beach", "beach"},
		{"  #Trip ", "trip"},
		{"#", ""},
		{"already-normal", "already-normal"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTag(tt.in), "NormalizeTag(%q)", tt.in)
	}
}

func TestNormalizeTagIdempotent(t *testing.T) {
	for _, in := range []string{"Beach", "#Trip", "dog-park", "  MiXeD  "} {
		once := NormalizeTag(in)
		assert.Equal(t, once, NormalizeTag(once))
	}
}

func TestSplitLabel(t *testing.T) {
	assert.Equal(t, []string{"beach", "trip"}, SplitLabel("beach trip"))
	assert.Equal(t, []string{"beach", "trip"}, SplitLabel(" #Beach, trip,, "))
	assert.Equal(t, []string{"beach"}, SplitLabel("beach BEACH #beach"))
	assert.Empty(t, SplitLabel("  , , # "))
	assert.Empty(t, SplitLabel(""))
}

func TestAssignTags(t *testing.T) {
	assert.Equal(t, []string{"beach", "trip"}, AssignTags(models.MediaPhoto, "beach trip"))

	// No usable label falls back to the kind's default category.
	assert.Equal(t, []string{"photos"}, AssignTags(models.MediaPhoto, ""))
	assert.Equal(t, []string{"videos"}, AssignTags(models.MediaVideo, " , "))
	assert.Equal(t, []string{"audio"}, AssignTags(models.MediaAudio, ""))
	assert.Equal(t, []string{"documents"}, AssignTags(models.MediaDocument, ""))
	assert.Equal(t, []string{"stickers"}, AssignTags(models.MediaSticker, ""))
	assert.Equal(t, []string{"other"}, AssignTags(models.MediaOther, ""))
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"photos", "beach", "trip"},
		MergeTags([]string{"photos"}, []string{"beach", "trip"}))
	assert.Equal(t, []string{"photos", "beach"},
		MergeTags([]string{"photos", "beach"}, []string{"beach", "photos"}))
	assert.Equal(t, []string{"photos"}, MergeTags([]string{"photos"}, nil))
	assert.Equal(t, []string{"beach"}, MergeTags(nil, []string{"beach"}))
}
