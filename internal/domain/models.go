package domain

import (
	"image"
	"time"
)

// Template variant names
const (
	VariantBackground = "background"
	VariantColorbox   = "colorbox"
	VariantMatrix     = "matrix"
)

// Defaults carried over from the command line surface
const (
	DefaultFormula = `I = \int_0^h y^2\mathrm{d}A`
	DefaultColor   = "lightkhaki"
	DefaultMatrix  = "pmatrix"
	DefaultVariant = VariantColorbox
	DefaultDPI     = 500
)

// FormulaRequest holds the parameters substituted into a document template
type FormulaRequest struct {
	Formula string
	Color   string
	Matrix  string
	Variant string
}

// NewFormulaRequest creates a request with default styling
func NewFormulaRequest(formula string) FormulaRequest {
	return FormulaRequest{
		Formula: formula,
		Color:   DefaultColor,
		Matrix:  DefaultMatrix,
		Variant: DefaultVariant,
	}
}

// Page represents a single rasterized PDF page
type Page struct {
	PageNumber int
	Image      image.Image
}

// Width returns the page width in pixels
func (p Page) Width() int {
	return p.Image.Bounds().Dx()
}

// Height returns the page height in pixels
func (p Page) Height() int {
	return p.Image.Bounds().Dy()
}

// OutputImage describes a PNG written to the output directory
type OutputImage struct {
	Path   string
	Index  int
	Width  int
	Height int
}

// RenderResult summarizes one pipeline run
type RenderResult struct {
	JobID      string
	Outputs    []OutputImage
	PageCount  int
	PageWidth  int // uncropped size of the first page
	PageHeight int
	Duration   time.Duration
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart       EventType = "start"
	EventCompiling   EventType = "compiling"
	EventRasterizing EventType = "rasterizing"
	EventCropping    EventType = "cropping"
	EventPageWritten EventType = "page_written"
	EventError       EventType = "error"
	EventComplete    EventType = "complete"
)

// StreamEvent represents an event emitted during processing
type StreamEvent struct {
	Type       EventType   `json:"type"`
	PageNumber int         `json:"page_number,omitempty"`
	Payload    interface{} `json:"payload,omitempty"` // status message or *OutputImage
	Timestamp  time.Time   `json:"timestamp"`
}
