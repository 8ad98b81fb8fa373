// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id          string
		wantExt     string
		wantContent string
	}{
		{"markdown", ".md", "text/markdown"},
		{"latex", ".tex", "application/x-latex"},
		{"docx", ".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"jpg", ".jpg", "image/jpeg"},
		{"jpeg", ".jpeg", "image/jpeg"},
		{"rst", ".rst", DefaultContentType},
		// Lookup does not normalize case.
		{"PDF", ".PDF", DefaultContentType},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d := Lookup(tt.id)
			assert.Equal(t, tt.id, d.ID)
			assert.Equal(t, tt.wantExt, d.Extension)
			assert.Equal(t, tt.wantContent, d.ContentType)
		})
	}
}

func TestIsImage(t *testing.T) {
	for _, id := range []string{"png", "jpg", "jpeg", "tiff", "bmp", "gif", "PNG", "Jpeg"} {
		assert.True(t, IsImage(id), id)
	}
	for _, id := range []string{"pdf", "markdown", "svg", "webp", ""} {
		assert.False(t, IsImage(id), id)
	}
}

func TestIsImage_MatchesRegistry(t *testing.T) {
	var images []string
	for _, d := range All() {
		assert.Equal(t, d.Image, IsImage(d.ID), d.ID)
		if d.Image {
			images = append(images, d.ID)
		}
	}
	assert.ElementsMatch(t, []string{"bmp", "gif", "jpeg", "jpg", "png", "tiff"}, images)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("epub"))
	assert.False(t, Known("Epub"))
	assert.False(t, Known("asciidoc"))
}

func TestAll_SortedAndComplete(t *testing.T) {
	all := All()
	assert.Len(t, all, len(registry))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
	for _, d := range all {
		assert.Equal(t, IsImage(d.ID), d.Image, d.ID)
	}
}

func TestContentTypeForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".pdf", "application/pdf"},
		{".PDF", "application/pdf"},
		{".jpeg", "image/jpeg"},
		{".tex", "application/x-latex"},
		{".xyz", DefaultContentType},
		{"", DefaultContentType},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentTypeForExtension(tt.ext))
		})
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"markdown", "gfm+smart", "docx", "commonmark_x", "x-custom.v2", "PNG"} {
		assert.True(t, ValidID(id), id)
	}
	for _, id := range []string{"", "-o", "--lua-filter=x", "pdf;rm", "a b", "../pdf", strings.Repeat("a", 65)} {
		assert.False(t, ValidID(id), id)
	}
}
