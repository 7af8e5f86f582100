package types

import "time"

// CarSummary is the listing shape returned by car search. All fields come
// verbatim from storage; nothing here is validated or derived.
type CarSummary struct {
	ID            int64  `json:"id"`
	Year          int    `json:"year"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Price         int    `json:"price"`
	Mileage       int    `json:"mileage"`
	BodyType      string `json:"body_type"`
	Transmission  string `json:"transmission"`
	ExteriorColor string `json:"exterior_color"`
}

// CarDetail is the full listing record behind the detail view. Details is an
// open-ended mapping scraped from the source listing and stored as JSONB.
type CarDetail struct {
	CarSummary
	VIN           string         `json:"vin,omitempty"`
	InteriorColor string         `json:"interior_color,omitempty"`
	Description   string         `json:"description,omitempty"`
	Source        string         `json:"source,omitempty"`
	URL           string         `json:"url,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	Analysis      string         `json:"analysis,omitempty"`
	ScrapedAt     time.Time      `json:"scraped_at,omitempty"`
}

// BodyTypes lists the body type values the search form offers.
var BodyTypes = []string{
	"sedan", "suv", "coupe", "hatchback", "wagon", "convertible", "truck", "van",
}

// Transmissions lists the transmission values the search form offers.
var Transmissions = []string{"automatic", "manual", "cvt"}
