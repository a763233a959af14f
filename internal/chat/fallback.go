package chat

import (
	"fmt"
	"strings"

	"github.com/floatlabs/floatchat/internal/argo"
)

const noDataReply = "I don't have any ARGO measurements loaded yet. " +
	"Once data has been ingested I can answer questions about temperature, salinity and depth profiles."

// ruleTemplates is evaluated in order; the first entry whose keyword list
// matches the question renders the reply. The final entry has no keywords
// and always matches.
var ruleTemplates = []struct {
	keywords []string
	render   func(*argo.Snapshot) string
}{
	{
		keywords: []string{"temperature", "temp", "warm", "hot", "cold"},
		render: func(s *argo.Snapshot) string {
			if s.Temperature == nil {
				return "The dataset currently has no temperature measurements."
			}
			return fmt.Sprintf("Across %d measurements, temperature ranges from %.2f °C to %.2f °C with an average of %.2f °C.",
				s.TotalRecords, s.Temperature.Min, s.Temperature.Max, s.Temperature.Avg)
		},
	},
	{
		keywords: []string{"salinity", "salt", "saline", "psu"},
		render: func(s *argo.Snapshot) string {
			if s.Salinity == nil {
				return "The dataset currently has no salinity measurements."
			}
			return fmt.Sprintf("Across %d measurements, salinity ranges from %.2f to %.2f PSU with an average of %.2f PSU.",
				s.TotalRecords, s.Salinity.Min, s.Salinity.Max, s.Salinity.Avg)
		},
	},
	{
		keywords: []string{"depth", "deep", "shallow", "surface", "pressure"},
		render: func(s *argo.Snapshot) string {
			return fmt.Sprintf("The %d measurements span depths from %.2f to %.2f dbar.",
				s.TotalRecords, s.DepthMin, s.DepthMax)
		},
	},
	{
		keywords: []string{"info", "overview", "summary", "what", "tell", "about"},
		render: func(s *argo.Snapshot) string {
			return fmt.Sprintf("The dataset holds %d measurements from %d ARGO float(s): %s. "+
				"It covers latitudes %.2f to %.2f and longitudes %.2f to %.2f.",
				s.TotalRecords, len(s.Platforms), strings.Join(s.Platforms, ", "),
				s.LatMin, s.LatMax, s.LonMin, s.LonMax)
		},
	},
	{
		render: func(s *argo.Snapshot) string {
			return fmt.Sprintf("I have %d ARGO measurements loaded. "+
				"Ask me about temperature, salinity, depth, or request an overview of the dataset.",
				s.TotalRecords)
		},
	},
}

// fallbackReply answers from templates over the snapshot alone. Used as the
// whole strategy in rule-based mode and as the safety net when a provider
// call fails.
func fallbackReply(question string, c *argo.Context) string {
	if c.Stats.TotalRecords == 0 {
		return noDataReply
	}
	q := strings.ToLower(question)
	for _, tpl := range ruleTemplates {
		if len(tpl.keywords) == 0 || mentionsKeyword(q, tpl.keywords) {
			return tpl.render(c.Stats)
		}
	}
	return noDataReply // unreachable, the last template always matches
}

func mentionsKeyword(question string, words []string) bool {
	for _, w := range words {
		if strings.Contains(question, w) {
			return true
		}
	}
	return false
}
