package services

import (
	"strings"
	"testing"

	"github.com/trustlens/review-analyzer/internal/models"
)

func TestExplanationFocusBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.92, "authenticity"},
		{0.71, "authenticity"},
		{0.70, "ambiguity"}, // boundary: > 0.7 is strict
		{0.55, "ambiguity"},
		{0.40, "ambiguity"}, // boundary: < 0.4 is strict
		{0.39, "red flags"},
		{0.0, "red flags"},
		{1.0, "authenticity"},
	}

	for _, tc := range cases {
		got := explanationFocus(tc.score)
		if !strings.Contains(got, tc.want) {
			t.Errorf("explanationFocus(%v) = %q, want mention of %q", tc.score, got, tc.want)
		}
	}
}

func TestExplanationPromptIncludesVerdict(t *testing.T) {
	prompt := explanationPrompt(ExplainInput{
		ReviewText:     "Amazing product, fast shipping, works perfectly!",
		PredictedLabel: models.LabelGenuine,
		TrustScore:     0.92,
	})

	for _, want := range []string{
		"Amazing product, fast shipping, works perfectly!",
		"genuine",
		"0.92",
		"authenticity",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestNewOpenAIExplainerDefaultsModel(t *testing.T) {
	e := NewOpenAIExplainer("test-key", "")
	if e.Model == "" {
		t.Error("expected a default model when none is configured")
	}

	e = NewOpenAIExplainer("test-key", "gpt-4o")
	if e.Model != "gpt-4o" {
		t.Errorf("Model = %q, want configured override", e.Model)
	}
}
