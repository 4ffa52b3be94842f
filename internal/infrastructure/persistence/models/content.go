package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/content"
)

// HeroBannerModel is the persistence model for hero banners
type HeroBannerModel struct {
	AggregateModel
	Title    string `gorm:"type:varchar(200);not null"`
	Subtitle string `gorm:"type:varchar(500)"`
	ImageKey string `gorm:"type:varchar(500);not null"`
	CTALabel string `gorm:"column:cta_label;type:varchar(50)"`
	CTALink  string `gorm:"column:cta_link;type:varchar(500)"`
	Position int    `gorm:"not null;default:0;index"`
	Active   bool   `gorm:"not null;default:true"`
	StartsAt *time.Time
	EndsAt   *time.Time
}

// TableName returns the table name for GORM
func (HeroBannerModel) TableName() string {
	return "hero_banners"
}

// ToDomain converts the persistence model to a domain HeroBanner
func (m *HeroBannerModel) ToDomain() *content.HeroBanner {
	return &content.HeroBanner{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Title:             m.Title,
		Subtitle:          m.Subtitle,
		ImageKey:          m.ImageKey,
		CTALabel:          m.CTALabel,
		CTALink:           m.CTALink,
		Position:          m.Position,
		Active:            m.Active,
		StartsAt:          m.StartsAt,
		EndsAt:            m.EndsAt,
	}
}

// HeroBannerModelFromDomain creates a persistence model from a domain HeroBanner
func HeroBannerModelFromDomain(b *content.HeroBanner) *HeroBannerModel {
	m := &HeroBannerModel{
		Title:    b.Title,
		Subtitle: b.Subtitle,
		ImageKey: b.ImageKey,
		CTALabel: b.CTALabel,
		CTALink:  b.CTALink,
		Position: b.Position,
		Active:   b.Active,
		StartsAt: b.StartsAt,
		EndsAt:   b.EndsAt,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// CollectionModel is the persistence model for curated collections
type CollectionModel struct {
	AggregateModel
	Title       string      `gorm:"type:varchar(200);not null"`
	Slug        string      `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string      `gorm:"type:text"`
	ImageKey    string      `gorm:"type:varchar(500)"`
	ProductIDs  StringArray `gorm:"not null"`
	Featured    bool        `gorm:"not null;default:false"`
	Published   bool        `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CollectionModel) TableName() string {
	return "collections"
}

// ToDomain converts the persistence model to a domain Collection
func (m *CollectionModel) ToDomain() *content.Collection {
	return &content.Collection{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Title:             m.Title,
		Slug:              m.Slug,
		Description:       m.Description,
		ImageKey:          m.ImageKey,
		ProductIDs:        StringsToUUIDs(m.ProductIDs),
		Featured:          m.Featured,
		Published:         m.Published,
	}
}

// CollectionModelFromDomain creates a persistence model from a domain Collection
func CollectionModelFromDomain(c *content.Collection) *CollectionModel {
	m := &CollectionModel{
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		ImageKey:    c.ImageKey,
		ProductIDs:  UUIDsToStrings(c.ProductIDs),
		Featured:    c.Featured,
		Published:   c.Published,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// AboutPageID is the fixed primary key of the about page row
const AboutPageID = 1

// AboutPageModel stores the about page singleton
type AboutPageModel struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Title     string    `gorm:"type:varchar(200);not null"`
	Body      string    `gorm:"type:text;not null"`
	ImageKey  string    `gorm:"type:varchar(500)"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AboutPageModel) TableName() string {
	return "about_page"
}

// ToDomain converts the persistence model to a domain AboutPage
func (m *AboutPageModel) ToDomain() *content.AboutPage {
	return &content.AboutPage{
		Title:     m.Title,
		Body:      m.Body,
		ImageKey:  m.ImageKey,
		UpdatedAt: m.UpdatedAt,
	}
}
