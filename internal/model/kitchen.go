package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// KitchenType describes the layout of a kitchen.
type KitchenType string

const (
	KitchenOpen       KitchenType = "open"
	KitchenIsland     KitchenType = "island"
	KitchenIndustrial KitchenType = "industrial"
)

// Default operating window, in local hours.
const (
	DefaultOpenHour  = 8
	DefaultCloseHour = 22
)

// Kitchen is a rentable kitchen listing.
type Kitchen struct {
	ID           int64           `json:"id"`
	OwnerID      int64           `json:"owner_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Category     string          `json:"category"`
	KitchenType  KitchenType     `json:"kitchen_type"`
	AreaSqm      float64         `json:"area_sqm"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	OpenHour     int             `json:"open_hour"`
	CloseHour    int             `json:"close_hour"`
	Amenities    []string        `json:"amenities"`
	ImageURLs    []string        `json:"image_urls"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewKitchen applies defaults and validates a kitchen before it is stored.
func NewKitchen(k Kitchen) (*Kitchen, error) {
	k.Title = strings.TrimSpace(k.Title)
	k.City = strings.TrimSpace(k.City)
	if k.OpenHour == 0 && k.CloseHour == 0 {
		k.OpenHour, k.CloseHour = DefaultOpenHour, DefaultCloseHour
	}
	if k.KitchenType == "" {
		k.KitchenType = KitchenOpen
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return &k, nil
}

// Validate checks field invariants.
func (k *Kitchen) Validate() error {
	if k.OwnerID <= 0 {
		return fmt.Errorf("kitchen: owner id is required")
	}
	if k.Title == "" {
		return fmt.Errorf("kitchen: title is required")
	}
	if k.PricePerHour.IsNegative() {
		return fmt.Errorf("kitchen: price per hour cannot be negative")
	}
	if k.AreaSqm < 0 {
		return fmt.Errorf("kitchen: area cannot be negative")
	}
	if k.OpenHour < 0 || k.CloseHour > 24 || k.OpenHour >= k.CloseHour {
		return fmt.Errorf("kitchen: invalid operating hours %d-%d", k.OpenHour, k.CloseHour)
	}
	switch k.KitchenType {
	case KitchenOpen, KitchenIsland, KitchenIndustrial:
	default:
		return fmt.Errorf("kitchen: unknown type %q", k.KitchenType)
	}
	return nil
}

// KitchenFilter narrows kitchen search results. Zero values mean "any".
type KitchenFilter struct {
	Query       string
	City        string
	Category    string
	KitchenType KitchenType
	OwnerID     int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinArea     *float64
	MaxArea     *float64
	OnlyActive  bool
	Limit       int
	Offset      int
}
