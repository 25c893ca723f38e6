package businesses

import (
	"errors"
	"time"
)

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrAlreadyOwner     = errors.New("owner already has a business")
)

// Business is a businesses table row. Ownership of one drives the
// unlimited listing tier.
type Business struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phone_number"`
	Description *string   `json:"description,omitempty"`
	Website     *string   `json:"website,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BusinessCard is the trimmed projection used on directory pages.
type BusinessCard struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Address    string   `json:"address"`
	ImageURLs  []string `json:"image_urls,omitempty"`
	IsVerified bool     `json:"is_verified"`
}
