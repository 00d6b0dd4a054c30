package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Client represents the counterparty an invoice is billed to.
// Implements the Ownable interface for ownership-based authorization.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this client (multi-tenant isolation scope)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Company string `gorm:"size:255" json:"company,omitempty"`

	Address    string `gorm:"size:500" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`

	Invoices []Invoice `gorm:"foreignKey:ClientID" json:"invoices,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uint {
	return c.UserID
}

// FullAddress returns the formatted postal address, one part per line.
func (c *Client) FullAddress() string {
	var parts []string
	if c.Address != "" {
		parts = append(parts, c.Address)
	}
	cityLine := strings.TrimSpace(c.PostalCode + " " + c.City)
	if cityLine != "" {
		parts = append(parts, cityLine)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	return strings.Join(parts, "\n")
}
