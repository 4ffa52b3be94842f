// Package printing renders order documents to PDF through headless Chrome.
package printing

import (
	"context"
	"time"
)

// PaperSize is a supported output paper format
type PaperSize string

const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "LETTER"
)

// IsValid checks if the PaperSize is supported
func (p PaperSize) IsValid() bool {
	return p == PaperA4 || p == PaperLetter
}

// Dimensions returns the paper size in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height float64) {
	if p == PaperLetter {
		return 215.9, 279.4
	}
	return 210, 297
}

// Margins are page margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins returns 12mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 12, Right: 12, Bottom: 12, Left: 12}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML      string
	Title     string
	Paper     PaperSize
	Landscape bool
	Margins   Margins
	// FooterHTML is Chrome's print footer template (optional)
	FooterHTML string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer renders HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeBusy             = "RENDERER_BUSY"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
