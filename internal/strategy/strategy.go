// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy chooses how a format pair is converted and builds the
// external tool command line for it.
//
// A Strategy is a closed tagged variant over six kinds. BuildCommand switches
// over every kind; the argument order and flag names are the pandoc and
// ImageMagick contracts and must not drift.
package strategy

import (
	"fmt"

	"github.com/pdiddy/docconv/internal/formats"
)

// Kind identifies a strategy variant.
type Kind int

const (
	GenericDocument Kind = iota
	PdfOutput
	PdfInput
	ImageConversion
	RtfToDocx
	HtmlToDocx
)

var kindNames = [...]string{
	GenericDocument: "generic-document",
	PdfOutput:       "pdf-output",
	PdfInput:        "pdf-input",
	ImageConversion: "image-conversion",
	RtfToDocx:       "rtf-to-docx",
	HtmlToDocx:      "html-to-docx",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

const (
	binPandoc  = "pandoc"
	binConvert = "convert"
)

// Tools names the executables a strategy invokes.
type Tools struct {
	// Document is the document converter (pandoc).
	Document string
	// Image is the image converter (ImageMagick convert).
	Image string
}

// DefaultTools invokes pandoc and convert from PATH.
func DefaultTools() Tools {
	return Tools{Document: binPandoc, Image: binConvert}
}

func (t Tools) withDefaults() Tools {
	if t.Document == "" {
		t.Document = binPandoc
	}
	if t.Image == "" {
		t.Image = binConvert
	}
	return t
}

// Command is an executable name followed by its arguments. It is never
// passed through a shell.
type Command []string

// Name returns the executable.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Args returns the arguments after the executable.
func (c Command) Args() []string {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// Strategy is one way of converting a format pair. The zero value is not
// useful; construct strategies through Select or a Selector.
type Strategy struct {
	Kind Kind

	// InputFormat and OutputFormat are the declared identifiers. Fixed
	// strategies (RtfToDocx, HtmlToDocx) record their implied pair.
	InputFormat  string
	OutputFormat string

	// ContentType and Extension describe the artifact the command produces.
	ContentType string
	Extension   string

	tools Tools
}

const contentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func newGenericDocument(t Tools, in, out string) Strategy {
	d := formats.Lookup(out)
	return Strategy{Kind: GenericDocument, InputFormat: in, OutputFormat: out, ContentType: d.ContentType, Extension: d.Extension, tools: t}
}

func newPdfOutput(t Tools, in string) Strategy {
	return Strategy{Kind: PdfOutput, InputFormat: in, OutputFormat: "pdf", ContentType: "application/pdf", Extension: ".pdf", tools: t}
}

func newPdfInput(t Tools, out string) Strategy {
	d := formats.Lookup(out)
	return Strategy{Kind: PdfInput, InputFormat: "pdf", OutputFormat: out, ContentType: d.ContentType, Extension: d.Extension, tools: t}
}

func newImageConversion(t Tools, in, out string) Strategy {
	d := formats.Lookup(out)
	return Strategy{Kind: ImageConversion, InputFormat: in, OutputFormat: out, ContentType: d.ContentType, Extension: d.Extension, tools: t}
}

func newRtfToDocx(t Tools) Strategy {
	return Strategy{Kind: RtfToDocx, InputFormat: "rtf", OutputFormat: "docx", ContentType: contentTypeDocx, Extension: ".docx", tools: t}
}

func newHtmlToDocx(t Tools) Strategy {
	return Strategy{Kind: HtmlToDocx, InputFormat: "html", OutputFormat: "docx", ContentType: contentTypeDocx, Extension: ".docx", tools: t}
}

// pdfOutputVariables lay out letter pages with fixed margins and suppress
// widows and orphans.
var pdfOutputVariables = []string{
	"--variable=geometry:left=1in,right=1in,top=0.5in,bottom=0.5in",
	"--variable=papersize=letter",
	"--variable=fontsize=12pt",
	"--variable=block-headings",
	"--variable=widowpenalty=10000",
	"--variable=clubpenalty=10000",
}

// BuildCommand returns a fresh command converting inputPath to outputPath.
func (s Strategy) BuildCommand(inputPath, outputPath string) Command {
	t := s.tools.withDefaults()

	switch s.Kind {
	case GenericDocument:
		return Command{t.Document, "-f", s.InputFormat, "-t", s.OutputFormat, "-o", outputPath, inputPath}

	case PdfOutput:
		cmd := Command{t.Document, "-f", s.InputFormat}
		cmd = append(cmd, pdfOutputVariables...)
		return append(cmd, "-o", outputPath, inputPath)

	case PdfInput:
		cmd := Command{t.Document, "-f", "pdf", "-t", s.OutputFormat, "--extract-media=./media"}
		cmd = append(cmd, pdfInputFlags(s.OutputFormat)...)
		return append(cmd, "-o", outputPath, inputPath)

	case ImageConversion:
		cmd := Command{t.Image, inputPath}
		cmd = append(cmd, imageFlags(s.OutputFormat)...)
		return append(cmd, outputPath)

	case RtfToDocx:
		return Command{t.Document, "-f", "rtf", "-t", "docx", "--reference-doc=default", "-o", outputPath, inputPath}

	case HtmlToDocx:
		return Command{t.Document, "-f", "html", "-t", "docx", "--extract-media=.", "-o", outputPath, inputPath}

	default:
		panic(fmt.Sprintf("strategy: unhandled kind %v", s.Kind))
	}
}

// pdfInputFlags returns the extra pandoc flags for reading a PDF into out.
func pdfInputFlags(out string) []string {
	switch out {
	case "docx":
		return []string{"--reference-doc=default", "--toc", "--standalone"}
	case "html":
		return []string{"--standalone", "--metadata=title:Converted Document", "--css=default", "--embed-resources"}
	case "markdown":
		return []string{"--wrap=none", "--standalone", "--atx-headers"}
	case "odt", "rtf":
		return []string{"--standalone"}
	default:
		return nil
	}
}

// imageFlags returns the extra ImageMagick flags for writing out.
func imageFlags(out string) []string {
	switch out {
	case "jpg", "jpeg":
		return []string{"-quality", "90"}
	case "png":
		return []string{"-compress", "Zip"}
	default:
		return nil
	}
}
