package boardingpass

import (
	"fmt"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/config"
)

// Profile selects one of the two supported layouts.
type Profile string

const (
	// ProfileRounded pins a rounded logo to the top right and prints
	// departure and arrival on one line each.
	ProfileRounded Profile = config.ProfileRounded
	// ProfileClassic flows a plain logo, adds a "Trayecto" title and prints
	// departure and arrival as label and value lines.
	ProfileClassic Profile = config.ProfileClassic
)

// ParseProfile accepts "rounded", "classic" or "" (rounded).
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case "", ProfileRounded:
		return ProfileRounded, nil
	case ProfileClassic:
		return ProfileClassic, nil
	default:
		return "", fmt.Errorf("unknown boarding pass profile %q", s)
	}
}

// Options carries the values printed on the pass that the ticket record does
// not hold. Zero fields fall back to DefaultOptions.
type Options struct {
	Profile    Profile
	Seat       string
	Group      string
	Booking    string
	Origin     string
	Airport    string
	LogoRadius int
	// Now stamps the document creation date. Body layout never depends on it.
	Now func() time.Time
}

// DefaultOptions returns the reference layout values.
func DefaultOptions() Options {
	return Options{
		Profile:    ProfileRounded,
		Seat:       "6C",
		Group:      "4",
		Booking:    "W6LTWP 2017-07-13",
		Origin:     "LIMA",
		Airport:    "NUEVO AEROPUERTO INTERNACIONAL JORGE CHAVEZ",
		LogoRadius: 200,
		Now:        time.Now,
	}
}

// OptionsFromConfig maps the render section of the configuration.
func OptionsFromConfig(c config.RenderConfig) Options {
	return Options{
		Profile:    Profile(c.Profile),
		Seat:       c.Seat,
		Group:      c.Group,
		Booking:    c.Booking,
		Origin:     c.Origin,
		Airport:    c.Airport,
		LogoRadius: c.LogoRadius,
	}
}

// withDefaults fills zero fields. A zero LogoRadius keeps the default; use a
// negative radius for square corners.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Profile == "" {
		o.Profile = d.Profile
	}
	if o.Seat == "" {
		o.Seat = d.Seat
	}
	if o.Group == "" {
		o.Group = d.Group
	}
	if o.Booking == "" {
		o.Booking = d.Booking
	}
	if o.Origin == "" {
		o.Origin = d.Origin
	}
	if o.Airport == "" {
		o.Airport = d.Airport
	}
	if o.LogoRadius == 0 {
		o.LogoRadius = d.LogoRadius
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}
