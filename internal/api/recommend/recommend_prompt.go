package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
)

// titleKey turns a details key like "fuel_type" into "Fuel Type" for prompts
// and display.
func titleKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func writeCriteria(b *strings.Builder, criteria types.SearchCriteria) {
	c := criteria.Normalized()
	if c.IsEmpty() {
		return
	}
	b.WriteString("\nUSER PREFERENCES:\n")
	if c.Make != "" {
		fmt.Fprintf(b, "- Make: %s\n", c.Make)
	}
	if c.Model != "" {
		fmt.Fprintf(b, "- Model: %s\n", c.Model)
	}
	writeRange(b, "Year", c.Year)
	writeRange(b, "Price", c.Price)
	writeRange(b, "Mileage", c.Mileage)
	if c.BodyType != "" {
		fmt.Fprintf(b, "- Body Type: %s\n", c.BodyType)
	}
	if c.Transmission != "" {
		fmt.Fprintf(b, "- Transmission: %s\n", c.Transmission)
	}
}

func writeRange(b *strings.Builder, label string, r *types.IntRange) {
	if r.IsZero() {
		return
	}
	switch {
	case r.Min != nil && r.Max != nil:
		fmt.Fprintf(b, "- %s: between %d and %d\n", label, *r.Min, *r.Max)
	case r.Min != nil:
		fmt.Fprintf(b, "- %s: at least %d\n", label, *r.Min)
	default:
		fmt.Fprintf(b, "- %s: at most %d\n", label, *r.Max)
	}
}

func writeCarListing(b *strings.Builder, car types.CarDetail) {
	fmt.Fprintf(b, "- ID: %d\n", car.ID)
	fmt.Fprintf(b, "- Year: %d\n", car.Year)
	fmt.Fprintf(b, "- Make: %s\n", car.Make)
	fmt.Fprintf(b, "- Model: %s\n", car.Model)
	fmt.Fprintf(b, "- Price: $%d\n", car.Price)
	fmt.Fprintf(b, "- Mileage: %d\n", car.Mileage)
	if car.BodyType != "" {
		fmt.Fprintf(b, "- Body Type: %s\n", car.BodyType)
	}
	if car.Transmission != "" {
		fmt.Fprintf(b, "- Transmission: %s\n", car.Transmission)
	}
	if car.Analysis != "" {
		fmt.Fprintf(b, "- Prior Assessment: %s\n", car.Analysis)
	}
	// Stable key order so identical listings produce identical prompts
	keys := make([]string, 0, len(car.Details))
	for k := range car.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %v\n", titleKey(k), car.Details[k])
	}
}

// buildAnalysisPrompt asks for a short free-text assessment of one listing.
func buildAnalysisPrompt(car types.CarDetail, criteria types.SearchCriteria) string {
	var b strings.Builder
	b.WriteString("Analyze the following pre-owned car listing and provide your professional assessment:\n\nCAR DETAILS:\n")
	writeCarListing(&b, car)
	writeCriteria(&b, criteria)
	b.WriteString(`
Please provide a concise analysis of this vehicle covering:
1. Value assessment (is this price reasonable for this vehicle?)
2. Potential concerns or red flags based on the listing
3. Key benefits of this vehicle
4. Overall recommendation (avoid, consider, or recommended)

Keep your analysis brief but insightful, focusing on the most important factors a buyer should consider.
`)
	return b.String()
}

// buildRankingPrompt asks for a strict-JSON ranking of the candidate listings.
func buildRankingPrompt(cars []types.CarDetail, criteria types.SearchCriteria) string {
	var b strings.Builder
	b.WriteString("You are a pre-owned car buying expert. Analyze and rank the following vehicles based on value, reliability, and overall quality.\n")
	writeCriteria(&b, criteria)

	b.WriteString("\nCAR LISTINGS:\n")
	for i, car := range cars {
		fmt.Fprintf(&b, "\nCAR %d:\n", i+1)
		writeCarListing(&b, car)
	}

	b.WriteString(`
Rank these vehicles from best to worst overall value, considering:
1. Price relative to market value
2. Expected reliability and maintenance costs
3. Alignment with user preferences
4. Overall condition and potential issues

Respond with JSON only, no prose outside it, in exactly this shape:
{
  "summary": "<2-3 sentence overview of the market for these criteria>",
  "top_picks": [
    {"id": <listing ID>, "year": <year>, "make": "<make>", "model": "<model>", "price": <price>, "reason": "<1-2 sentence justification>"}
  ],
  "considerations": "<general caveats a buyer should keep in mind>"
}
Include at most 3 top picks, best first, and copy id, year, make, model and price verbatim from the listing.
`)
	return b.String()
}
