package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trustlens/review-analyzer/internal/models"
)

func newScorerServer(t *testing.T, handler http.HandlerFunc) (*TrustScorer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	scorer := NewTrustScorer(srv.URL)
	scorer.Client = srv.Client()
	return scorer, srv
}

func TestTrustScorerSuccess(t *testing.T) {
	var gotPath, gotText string
	scorer, _ := newScorerServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("request body not JSON: %v", err)
		}
		gotText = body["text"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"predicted_label": "genuine",
			"trust_score":     0.92,
		})
	})

	result, err := scorer.Score(context.Background(), "Amazing product!")
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if gotPath != "/predict" {
		t.Errorf("request path = %q, want /predict", gotPath)
	}
	if gotText != "Amazing product!" {
		t.Errorf("request text = %q, want review text", gotText)
	}
	if result.Label != models.LabelGenuine {
		t.Errorf("Label = %q, want genuine", result.Label)
	}
	if result.TrustScore != 0.92 {
		t.Errorf("TrustScore = %v, want 0.92", result.TrustScore)
	}
}

func TestTrustScorerNon2xx(t *testing.T) {
	scorer, _ := newScorerServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"models not loaded"}`, http.StatusInternalServerError)
	})

	if _, err := scorer.Score(context.Background(), "some review"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestTrustScorerMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing label", `{"trust_score": 0.5}`},
		{"missing score", `{"predicted_label": "genuine"}`},
		{"unknown label", `{"predicted_label": "suspicious", "trust_score": 0.5}`},
		{"score above 1", `{"predicted_label": "genuine", "trust_score": 1.7}`},
		{"negative score", `{"predicted_label": "fake", "trust_score": -0.2}`},
		{"not json", `<html>bad gateway</html>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scorer, _ := newScorerServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			})

			if _, err := scorer.Score(context.Background(), "some review"); err == nil {
				t.Fatal("expected error for malformed payload")
			}
		})
	}
}

func TestTrustScorerAcceptsBoundaryScores(t *testing.T) {
	for _, score := range []float64{0, 1} {
		scorer, _ := newScorerServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"predicted_label": "fake",
				"trust_score":     score,
			})
		})

		result, err := scorer.Score(context.Background(), "review")
		if err != nil {
			t.Fatalf("Score(%v) returned error: %v", score, err)
		}
		if result.TrustScore != score {
			t.Errorf("TrustScore = %v, want %v", result.TrustScore, score)
		}
	}
}

func TestTrustScorerNormalizesLabelCase(t *testing.T) {
	scorer, _ := newScorerServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"predicted_label": " Genuine ",
			"trust_score":     0.8,
		})
	})

	result, err := scorer.Score(context.Background(), "review")
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if result.Label != models.LabelGenuine {
		t.Errorf("Label = %q, want normalized genuine", result.Label)
	}
}

func TestTrustScorerUnconfiguredURL(t *testing.T) {
	scorer := &TrustScorer{Client: http.DefaultClient}
	if _, err := scorer.Score(context.Background(), "review"); err == nil {
		t.Fatal("expected error when base URL is not configured")
	}
}
