package scoring

import "math"

// FactorExplanation is the per-factor breakdown in an explanation view
type FactorExplanation struct {
	Name        string  `json:"name"`
	Score       int     `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Impact      int     `json:"impact"`
}

// Explanation is the human-readable view of a scoring result
type Explanation struct {
	TotalScore      int                 `json:"totalScore"`
	Confidence      float64             `json:"confidence"`
	Factors         []FactorExplanation `json:"factors"`
	Recommendations []string            `json:"recommendations"`
}

// recommendations maps factor names to the suggestion surfaced when the
// factor scores below 50. Factors without an entry are skipped.
var recommendations = map[string]string{
	FactorFormCompleteness: "Encourage users to complete more form fields",
	FactorEmailQuality:     "Verify email address quality and validity",
	FactorPhoneProvided:    "Request phone number to improve lead quality",
	FactorCompanyProvided:  "Ask for company information",
	FactorPageViews:        "Improve content to increase page engagement",
	FactorTimeOnSite:       "Create more engaging content to increase time on site",
	FactorBounceRate:       "Improve landing page relevance and user experience",
}

// Explain builds the explanation view for a scoring result. Factor
// order, and therefore recommendation order, follows the catalog order
// the result was computed with.
func Explain(result *Result) *Explanation {
	exp := &Explanation{
		TotalScore:      result.Score,
		Confidence:      result.Confidence,
		Factors:         make([]FactorExplanation, 0, len(result.Factors)),
		Recommendations: []string{},
	}

	for _, f := range result.Factors {
		exp.Factors = append(exp.Factors, FactorExplanation{
			Name:        f.Name,
			Score:       f.Value,
			Weight:      f.Weight,
			Description: f.Description,
			Impact:      int(math.Round(float64(f.Value) * f.Weight)),
		})
		if f.Value < 50 {
			if rec, ok := recommendations[f.Name]; ok {
				exp.Recommendations = append(exp.Recommendations, rec)
			}
		}
	}

	return exp
}
