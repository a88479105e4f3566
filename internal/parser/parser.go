// Package parser turns a decoded digest email body into the structured
// report form: named sections, numbered deal items, and detail blocks.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
)

// Parser converts raw digest bytes into a Report.
type Parser interface {
	Parse(r io.Reader) (*digest.Report, error)
}

// DefaultSections is the section heading allow-list used when no
// vocabulary override is configured. Only lines exactly matching one of
// these names open a section.
var DefaultSections = []string{
	"Automotive",
	"Chemicals and materials",
	"Computer software",
	"Construction",
	"Consumer: Foods",
	"Consumer: Other",
	"Consumer: Retail",
	"Energy",
	"Financial Services",
	"Industrial automation",
	"Industrial products and services",
	"Industrial: Electronics",
	"Internet / ecommerce",
	"Leisure",
	"Media",
	"Real Estate",
	"Services (other)",
	"Telecommunications: Carriers",
	"Transportation",
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".eml":  true,
	".html": true,
	".htm":  true,
}

// ForFile returns the appropriate parser for a filename. Sections may be
// nil to use DefaultSections.
func ForFile(filename string, sections []string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".eml":
		return NewTextParser(sections), nil
	case ".html", ".htm":
		return NewHTMLParser(sections), nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
