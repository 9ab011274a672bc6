package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// KitchenConfig is a single seeded kitchen listing.
type KitchenConfig struct {
	ID           int64    `yaml:"id"`
	OwnerID      int64    `yaml:"owner_id"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Address      string   `yaml:"address"`
	City         string   `yaml:"city"`
	Category     string   `yaml:"category"`
	KitchenType  string   `yaml:"kitchen_type"`
	AreaSqm      float64  `yaml:"area_sqm"`
	PricePerHour string   `yaml:"price_per_hour"`
	OpenHour     int      `yaml:"open_hour"`
	CloseHour    int      `yaml:"close_hour"`
	Amenities    []string `yaml:"amenities"`
	IsActive     bool     `yaml:"is_active"`
}

// Price parses PricePerHour.
func (k KitchenConfig) Price() (decimal.Decimal, error) {
	if k.PricePerHour == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(k.PricePerHour)
}

// KitchenDefaults applies to kitchens that leave fields empty.
type KitchenDefaults struct {
	OpenHour  int    `yaml:"open_hour"`
	CloseHour int    `yaml:"close_hour"`
	City      string `yaml:"city"`
}

// KitchensConfig is the root of kitchens.yaml.
type KitchensConfig struct {
	Kitchens []KitchenConfig `yaml:"kitchens"`
	Defaults KitchenDefaults `yaml:"defaults"`
}

// LoadKitchensConfig loads and validates the kitchen catalog seed file.
func LoadKitchensConfig(path string) (*KitchensConfig, error) {
	if path == "" {
		path = "configs/kitchens.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kitchens config: %w", err)
	}

	var cfg KitchensConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse kitchens config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate kitchens config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *KitchensConfig) Validate() error {
	ids := make(map[int64]bool)

	for i, k := range c.Kitchens {
		if k.ID <= 0 {
			return fmt.Errorf("kitchen[%d]: id must be positive, got %d", i, k.ID)
		}
		if ids[k.ID] {
			return fmt.Errorf("kitchen[%d]: duplicate id %d", i, k.ID)
		}
		ids[k.ID] = true

		if k.OwnerID <= 0 {
			return fmt.Errorf("kitchen[%d]: owner_id is required", i)
		}
		if k.Title == "" {
			return fmt.Errorf("kitchen[%d]: title is required", i)
		}
		price, err := k.Price()
		if err != nil {
			return fmt.Errorf("kitchen[%d]: invalid price_per_hour '%s'", i, k.PricePerHour)
		}
		if price.IsNegative() {
			return fmt.Errorf("kitchen[%d]: price_per_hour cannot be negative", i)
		}
		if k.OpenHour < 0 || k.CloseHour > 24 || k.OpenHour >= k.CloseHour {
			return fmt.Errorf("kitchen[%d]: open_hour must be before close_hour within 0-24", i)
		}
		switch k.KitchenType {
		case "", "open", "island", "industrial":
		default:
			return fmt.Errorf("kitchen[%d]: unknown kitchen_type '%s'", i, k.KitchenType)
		}
	}

	return nil
}

func (c *KitchensConfig) applyDefaults() {
	open, closeHour := c.Defaults.OpenHour, c.Defaults.CloseHour
	if open == 0 && closeHour == 0 {
		open, closeHour = 8, 22
	}
	for i := range c.Kitchens {
		k := &c.Kitchens[i]
		if k.OpenHour == 0 && k.CloseHour == 0 {
			k.OpenHour, k.CloseHour = open, closeHour
		}
		if k.City == "" {
			k.City = c.Defaults.City
		}
		if k.KitchenType == "" {
			k.KitchenType = "open"
		}
	}
}

// GetKitchenByID returns kitchen config by ID.
func (c *KitchensConfig) GetKitchenByID(id int64) *KitchenConfig {
	for i := range c.Kitchens {
		if c.Kitchens[i].ID == id {
			return &c.Kitchens[i]
		}
	}
	return nil
}

// String returns a summary of the configuration.
func (c *KitchensConfig) String() string {
	active := 0
	for _, k := range c.Kitchens {
		if k.IsActive {
			active++
		}
	}
	return fmt.Sprintf("KitchensConfig: %d kitchens (%d active)", len(c.Kitchens), active)
}
