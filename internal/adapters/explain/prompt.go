// Package explain asks a hosted language model for a short narrative about
// a chosen route. Failures are returned to the caller, which treats the
// explanation as optional.
package explain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
)

// ErrMalformed is returned when the model reply is not the expected JSON object.
var ErrMalformed = errors.New("explain: malformed model reply")

const (
	temperature = 0.3
	maxTokens   = 1000
)

// BuildPrompt renders the route, cost, risk and alternative summaries.
func BuildPrompt(in ports.ExplainInput) string {
	var b strings.Builder

	b.WriteString("You are a logistics analyst. Explain why the primary route was chosen for a delivery optimization task.\n\n")

	b.WriteString("Primary route:\n")
	fmt.Fprintf(&b, "- Distance: %.2f km\n", in.Route.TotalDistanceKm)
	fmt.Fprintf(&b, "- Estimated time: %.1f minutes\n", in.Route.TotalTimeMin)
	fmt.Fprintf(&b, "- Risk score: %.2f/10 (%s)\n", in.Risk.TotalRiskScore, in.Risk.RiskLevel)
	fmt.Fprintf(&b, "- Predicted cost: Rs. %.0f (PKR)\n", in.Cost.PredictedCost)
	fmt.Fprintf(&b, "- Number of stops: %d\n\n", in.NumStops)

	b.WriteString("Risk analysis:\n")
	zones := "None"
	if len(in.Risk.ZonesHit) > 0 {
		zones = strings.Join(in.Risk.ZonesHit, ", ")
	}
	fmt.Fprintf(&b, "- Zones encountered: %s\n", zones)
	byType, _ := json.Marshal(in.Risk.ZonesByType)
	fmt.Fprintf(&b, "- Zone types: %s\n\n", byType)

	b.WriteString("Alternative routes:\n")
	for i, alt := range in.Alternatives {
		fmt.Fprintf(&b, "%d. %s:\n", i+1, alt.Name)
		fmt.Fprintf(&b, "   - Distance: %.2f km\n", alt.Route.TotalDistanceKm)
		fmt.Fprintf(&b, "   - Time: %.1f min\n", alt.Route.TotalTimeMin)
		fmt.Fprintf(&b, "   - Risk: %.2f/10\n", alt.Risk.TotalRiskScore)
		fmt.Fprintf(&b, "   - Cost: Rs. %.0f (PKR)\n", alt.Cost.PredictedCost)
		fmt.Fprintf(&b, "   - Trade-off: %s\n", alt.TradeOffs)
	}

	b.WriteString(`
Reply with ONLY a JSON object, no markdown, using exactly these keys:
{
  "summary": "one sentence summary of the route choice",
  "reasoning": "2-3 sentences citing specific metrics",
  "trade_offs": "key trade-offs such as distance vs safety",
  "recommendations": "advice for the driver"
}
Use only facts from the data above.
`)
	return b.String()
}

type reply struct {
	Summary         *string `json:"summary"`
	Reasoning       *string `json:"reasoning"`
	TradeOffs       *string `json:"trade_offs"`
	Recommendations *string `json:"recommendations"`
}

// ParseReply strips optional code fences and decodes the four required keys.
func ParseReply(text string) (*domain.Explanation, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var r reply
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Summary == nil || r.Reasoning == nil || r.TradeOffs == nil || r.Recommendations == nil {
		return nil, fmt.Errorf("%w: missing required keys", ErrMalformed)
	}

	return &domain.Explanation{
		Summary:         *r.Summary,
		Reasoning:       *r.Reasoning,
		TradeOffs:       *r.TradeOffs,
		Recommendations: *r.Recommendations,
	}, nil
}
