package types

import (
	"fmt"
	"slices"
	"strings"
)

// IntRange is an optional min/max pair. Either bound may be set on its own.
type IntRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// IsZero reports whether the range constrains nothing.
func (r *IntRange) IsZero() bool {
	return r == nil || (r.Min == nil && r.Max == nil)
}

// SearchCriteria is the filter object posted to the search and analyze
// endpoints. Every field is optional; Normalized strips members that carry
// no constraint so empty keys never reach storage or the LLM prompt.
type SearchCriteria struct {
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	Year         *IntRange `json:"year,omitempty"`
	Price        *IntRange `json:"price,omitempty"`
	Mileage      *IntRange `json:"mileage,omitempty"`
	BodyType     string    `json:"body_type,omitempty"`
	Transmission string    `json:"transmission,omitempty"`
}

// Normalized returns a copy with whitespace-only strings emptied and
// all-nil ranges dropped, so the JSON encoding omits them entirely.
func (c SearchCriteria) Normalized() SearchCriteria {
	out := c
	out.Make = strings.TrimSpace(c.Make)
	out.Model = strings.TrimSpace(c.Model)
	out.BodyType = strings.TrimSpace(c.BodyType)
	out.Transmission = strings.TrimSpace(c.Transmission)
	if c.Year.IsZero() {
		out.Year = nil
	}
	if c.Price.IsZero() {
		out.Price = nil
	}
	if c.Mileage.IsZero() {
		out.Mileage = nil
	}
	return out
}

// Validate rejects body type and transmission values outside the sets the
// search form offers.
func (c SearchCriteria) Validate() error {
	n := c.Normalized()
	if n.BodyType != "" && !slices.Contains(BodyTypes, strings.ToLower(n.BodyType)) {
		return fmt.Errorf("unknown body type %q", n.BodyType)
	}
	if n.Transmission != "" && !slices.Contains(Transmissions, strings.ToLower(n.Transmission)) {
		return fmt.Errorf("unknown transmission %q", n.Transmission)
	}
	return nil
}

// IsEmpty reports whether no filter at all is set after normalization.
func (c SearchCriteria) IsEmpty() bool {
	n := c.Normalized()
	return n.Make == "" && n.Model == "" && n.BodyType == "" && n.Transmission == "" &&
		n.Year == nil && n.Price == nil && n.Mileage == nil
}
