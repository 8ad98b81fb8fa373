// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formats holds the static registry of conversion formats: the file
// extension and MIME content type for each format identifier, and the
// image/document classification used to pick a converter tool.
package formats

import (
	"regexp"
	"sort"
	"strings"
)

// IDPattern is the accepted shape of a caller-supplied format identifier.
// The leading character is alphanumeric so an identifier placed in a
// converter's argument list is never read as a flag.
var IDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_+.-]{0,63}$`)

// ValidID reports whether id matches IDPattern.
func ValidID(id string) bool {
	return IDPattern.MatchString(id)
}

// DefaultContentType is reported for identifiers missing from the registry.
const DefaultContentType = "application/octet-stream"

const contentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Descriptor describes one format identifier.
type Descriptor struct {
	// ID is the identifier callers declare (e.g. "markdown", "png").
	ID string `json:"id" yaml:"id"`

	// Extension includes the leading dot (e.g. ".md").
	Extension string `json:"extension" yaml:"extension"`

	// ContentType is the MIME type of files in this format.
	ContentType string `json:"content_type" yaml:"content_type"`

	// Image reports whether the format is handled by the image converter.
	Image bool `json:"image" yaml:"image"`
}

var registry = map[string]Descriptor{
	// Document formats
	"markdown": {ID: "markdown", Extension: ".md", ContentType: "text/markdown"},
	"html":     {ID: "html", Extension: ".html", ContentType: "text/html"},
	"pdf":      {ID: "pdf", Extension: ".pdf", ContentType: "application/pdf"},
	"docx":     {ID: "docx", Extension: ".docx", ContentType: contentTypeDocx},
	"odt":      {ID: "odt", Extension: ".odt", ContentType: "application/vnd.oasis.opendocument.text"},
	"rtf":      {ID: "rtf", Extension: ".rtf", ContentType: "application/rtf"},
	"latex":    {ID: "latex", Extension: ".tex", ContentType: "application/x-latex"},
	"epub":     {ID: "epub", Extension: ".epub", ContentType: "application/epub+zip"},

	// Image formats
	"png":  {ID: "png", Extension: ".png", ContentType: "image/png", Image: true},
	"jpg":  {ID: "jpg", Extension: ".jpg", ContentType: "image/jpeg", Image: true},
	"jpeg": {ID: "jpeg", Extension: ".jpeg", ContentType: "image/jpeg", Image: true},
	"tiff": {ID: "tiff", Extension: ".tiff", ContentType: "image/tiff", Image: true},
	"bmp":  {ID: "bmp", Extension: ".bmp", ContentType: "image/bmp", Image: true},
	"gif":  {ID: "gif", Extension: ".gif", ContentType: "image/gif", Image: true},
}

// imageFormats is the closed set of identifiers routed to the image
// converter, derived from the registry entries marked Image.
var imageFormats = func() map[string]struct{} {
	m := make(map[string]struct{})
	for id, d := range registry {
		if d.Image {
			m[id] = struct{}{}
		}
	}
	return m
}()

// Lookup returns the descriptor for id. Lookup is case-sensitive. An unknown
// id yields a synthesized descriptor with extension "."+id and
// DefaultContentType; it is never an error.
func Lookup(id string) Descriptor {
	if d, ok := registry[id]; ok {
		return d
	}
	return Descriptor{
		ID:          id,
		Extension:   "." + id,
		ContentType: DefaultContentType,
		Image:       IsImage(id),
	}
}

// Known reports whether id has an entry in the registry.
func Known(id string) bool {
	_, ok := registry[id]
	return ok
}

// IsImage reports whether id, lowercased, is one of the raster image formats.
func IsImage(id string) bool {
	_, ok := imageFormats[strings.ToLower(id)]
	return ok
}

// All returns every registered descriptor sorted by ID.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ContentTypeForExtension returns the content type registered for ext
// (with its leading dot), or DefaultContentType.
func ContentTypeForExtension(ext string) string {
	ext = strings.ToLower(ext)
	for _, d := range All() {
		if d.Extension == ext {
			return d.ContentType
		}
	}
	return DefaultContentType
}
