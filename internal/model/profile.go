package model

import (
	"fmt"
	"strings"
	"time"
)

const maxNameLength = 100

// Profile holds the contact details a user shows to the other party.
type Profile struct {
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile trims and validates profile fields.
func NewProfile(userID int64, firstName, lastName, phone string) (*Profile, error) {
	p := &Profile{
		UserID:    userID,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Phone:     strings.TrimSpace(phone),
	}
	if userID <= 0 {
		return nil, fmt.Errorf("profile: user id is required")
	}
	if len([]rune(p.FirstName)) > maxNameLength || len([]rune(p.LastName)) > maxNameLength {
		return nil, fmt.Errorf("profile: names are limited to %d characters", maxNameLength)
	}
	if err := validatePhone(p.Phone); err != nil {
		return nil, err
	}
	return p, nil
}

// validatePhone accepts an optional leading + followed by 7 to 15 digits,
// with spaces, dashes and parentheses as separators.
func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return fmt.Errorf("profile: invalid phone %q", phone)
		}
	}
	if digits < 7 || digits > 15 {
		return fmt.Errorf("profile: invalid phone %q", phone)
	}
	return nil
}

// DisplayName is "First Last", or empty when neither is set.
func (p *Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ProfileSummary is a user's own profile with activity counts.
type ProfileSummary struct {
	Profile
	Bookings int `json:"bookings"`
	Kitchens int `json:"kitchens"`
}
