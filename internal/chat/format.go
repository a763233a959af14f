package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/floatlabs/floatchat/internal/argo"
)

// maxSampleLines caps how many sample records are rendered into the prompt.
// The assembler may fetch more for its own reasons; the provider does not
// need them all.
const maxSampleLines = 10

// FormatContext renders the dataset context as the plain-text block handed
// to the provider alongside the user's question.
func FormatContext(c *argo.Context) string {
	var b strings.Builder

	stats := c.Stats
	b.WriteString("=== ARGO Dataset Overview ===\n")
	if stats.TotalRecords == 0 {
		b.WriteString("The dataset is empty: no measurements have been ingested.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Total records: %d\n", stats.TotalRecords)
	fmt.Fprintf(&b, "Floats (%d): %s\n", len(stats.Platforms), strings.Join(stats.Platforms, ", "))
	fmt.Fprintf(&b, "Date range: %s to %s\n",
		stats.TimeMin.UTC().Format(time.RFC3339), stats.TimeMax.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Depth range: %.2f to %.2f dbar\n", stats.DepthMin, stats.DepthMax)
	if t := stats.Temperature; t != nil {
		fmt.Fprintf(&b, "Temperature: %.2f to %.2f °C (avg %.2f)\n", t.Min, t.Max, t.Avg)
	} else {
		b.WriteString("Temperature: no measurements\n")
	}
	if s := stats.Salinity; s != nil {
		fmt.Fprintf(&b, "Salinity: %.2f to %.2f PSU (avg %.2f)\n", s.Min, s.Max, s.Avg)
	} else {
		b.WriteString("Salinity: no measurements\n")
	}
	fmt.Fprintf(&b, "Region: lat %.2f to %.2f, lon %.2f to %.2f\n",
		stats.LatMin, stats.LatMax, stats.LonMin, stats.LonMax)

	if len(c.Sample) > 0 {
		shown := len(c.Sample)
		if shown > maxSampleLines {
			shown = maxSampleLines
		}
		fmt.Fprintf(&b, "\n=== Sample Records (%d of %d) ===\n", shown, len(c.Sample))
		for _, r := range c.Sample[:shown] {
			temp, sal := "n/a", "n/a"
			if r.Temperature != nil {
				temp = fmt.Sprintf("%.2f °C", *r.Temperature)
			}
			if r.Salinity != nil {
				sal = fmt.Sprintf("%.2f PSU", *r.Salinity)
			}
			fmt.Fprintf(&b, "- %s: depth=%.2f dbar, temp=%s, sal=%s (float %s)\n",
				r.Time.UTC().Format("2006-01-02"), r.Depth, temp, sal, r.Platform)
		}
	}
	return b.String()
}

func buildUserPrompt(question string, c *argo.Context) string {
	return FormatContext(c) + "\nUser question: " + question
}
