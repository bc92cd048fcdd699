package services

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/trustlens/review-analyzer/internal/models"
)

// ExplainInput carries the review text together with the scoring verdict it
// should explain. The score here is the exact value the scorer returned.
type ExplainInput struct {
	ReviewText     string
	PredictedLabel models.PredictedLabel
	TrustScore     float64
}

// Explainer turns a scoring verdict into a short natural-language rationale.
type Explainer interface {
	Explain(ctx context.Context, input ExplainInput) (string, error)
}

// Thresholds for choosing the explanation's focus. Both comparisons are
// strict: a score of exactly 0.7 or 0.4 gets the ambiguity framing.
const (
	highTrustThreshold = 0.7
	lowTrustThreshold  = 0.4
)

const maxExplanationTokens = 512

const explainerSystemPrompt = `You are an AI that explains the output of a machine learning model that detects fake reviews.
The model analyzed a review and produced a predicted label ('genuine' or 'fake') and a trust score (0.0 to 1.0).
Provide a brief, easy-to-understand explanation for why the review received this classification.`

// OpenAIExplainer generates explanations via the OpenAI chat completion API.
type OpenAIExplainer struct {
	client *openai.Client
	Model  string
}

func NewOpenAIExplainer(apiKey, model string) *OpenAIExplainer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExplainer{
		client: openai.NewClient(apiKey),
		Model:  model,
	}
}

// Explain asks the model for a rationale. An empty completion is reported as
// an error so the caller can fall back; the verdict itself is never affected
// by what happens here.
func (e *OpenAIExplainer) Explain(ctx context.Context, input ExplainInput) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     e.Model,
		MaxTokens: maxExplanationTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: explainerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: explanationPrompt(input)},
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from explanation model")
	}

	explanation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if explanation == "" {
		return "", fmt.Errorf("explanation model returned empty output")
	}

	return explanation, nil
}

// explanationPrompt builds the user prompt, steering the focus by score band.
func explanationPrompt(input ExplainInput) string {
	return fmt.Sprintf(`Review Text:
%q

Model Prediction:
- Label: %s
- Trust Score: %.2f

%s`, input.ReviewText, input.PredictedLabel, input.TrustScore, explanationFocus(input.TrustScore))
}

// explanationFocus selects which angle the rationale should take.
func explanationFocus(score float64) string {
	switch {
	case score > highTrustThreshold:
		return "The score is high. Focus on the signs of authenticity in the review."
	case score < lowTrustThreshold:
		return "The score is low. Focus on the potential red flags for fake reviews."
	default:
		return "The score is mid-range. Explain the ambiguity: which signals point either way and why the model could not commit."
	}
}
