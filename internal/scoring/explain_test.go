package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscore/internal/model"
)

func TestExplainImpactAndRecommendations(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	result := &Result{
		Score:      42,
		Confidence: 0.55,
		Timestamp:  ts,
		Factors: []model.ScoringFactor{
			{Name: FactorFormCompleteness, Value: 33, Weight: 0.15, Description: "Form completion percentage"},
			{Name: FactorEmailQuality, Value: 80, Weight: 0.10, Description: "Email domain quality and validity"},
			{Name: FactorPhoneProvided, Value: 0, Weight: 0.08, Description: "Phone number provided"},
			// below 50 but has no mapped suggestion: silently skipped
			{Name: FactorSourceQuality, Value: 40, Weight: 0.10, Description: "Lead source quality"},
		},
	}

	exp := Explain(result)

	assert.Equal(t, 42, exp.TotalScore)
	assert.Equal(t, 0.55, exp.Confidence)
	require.Len(t, exp.Factors, 4)

	// impact = round(value * weight)
	assert.Equal(t, 5, exp.Factors[0].Impact)
	assert.Equal(t, 8, exp.Factors[1].Impact)
	assert.Equal(t, 0, exp.Factors[2].Impact)
	assert.Equal(t, 4, exp.Factors[3].Impact)

	// catalog order, not severity; sourceQuality has no suggestion
	assert.Equal(t, []string{
		"Encourage users to complete more form fields",
		"Request phone number to improve lead quality",
	}, exp.Recommendations)
}

func TestExplainHealthyLeadHasNoRecommendations(t *testing.T) {
	result := &Result{
		Score:      92,
		Confidence: 1,
		Factors: []model.ScoringFactor{
			{Name: FactorFormCompleteness, Value: 100, Weight: 0.15},
			{Name: FactorEmailQuality, Value: 80, Weight: 0.10},
			{Name: FactorBounceRate, Value: 50, Weight: 0.08},
		},
	}

	exp := Explain(result)
	assert.Empty(t, exp.Recommendations)
	assert.NotNil(t, exp.Recommendations, "marshal as [] rather than null")
}

func TestExplainEngineRoundTrip(t *testing.T) {
	engine := NewEngine(DefaultCatalog()).WithClock(fixedClock())

	result, err := engine.Score(&model.Lead{Email: "user@gmail.com"}, nil, nil)
	require.NoError(t, err)

	exp := Explain(result)
	assert.Equal(t, result.Score, exp.TotalScore)
	assert.Len(t, exp.Factors, len(result.Factors))

	// low engagement across the board should surface engagement advice
	assert.Contains(t, exp.Recommendations, "Improve content to increase page engagement")
	assert.Contains(t, exp.Recommendations, "Request phone number to improve lead quality")
	// bounceRate floors at 50, which is not below the threshold
	assert.NotContains(t, exp.Recommendations, "Improve landing page relevance and user experience")
}