package content

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// AboutPage is the single editable "about us" page
type AboutPage struct {
	Title     string
	Body      string
	ImageKey  string
	UpdatedAt time.Time
}

// NewAboutPage validates and creates the page content
func NewAboutPage(title, body, imageKey string) (*AboutPage, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "About page title cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "About page body cannot be empty")
	}
	return &AboutPage{
		Title:     title,
		Body:      body,
		ImageKey:  strings.TrimSpace(imageKey),
		UpdatedAt: time.Now(),
	}, nil
}
