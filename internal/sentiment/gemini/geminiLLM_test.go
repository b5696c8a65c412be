package gemini

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestToResult(t *testing.T) {
	text := func(s string) *genai.Content {
		return &genai.Content{Parts: []*genai.Part{{Text: s}}}
	}
	tests := []struct {
		name        string
		resp        *genai.GenerateContentResponse
		wantText    string
		wantBlocked bool
		wantErr     error
	}{
		{
			name:     "plain answer",
			resp:     &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: text("positive")}}},
			wantText: "positive",
		},
		{
			name: "prompt blocked",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			wantBlocked: true,
		},
		{
			name: "finished for safety",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
			}}},
			wantBlocked: true,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: ErrNoCandidates,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toResult(tt.resp)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Blocked != tt.wantBlocked || got.GeneratedText != tt.wantText {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestGenerationConfig(t *testing.T) {
	cfg := generationConfig()
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.2) {
		t.Errorf("unexpected temperature %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 10 {
		t.Errorf("unexpected max tokens %d", cfg.MaxOutputTokens)
	}
}
