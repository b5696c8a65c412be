package bigqueryML

import (
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("aiedge_imdb_data.llm_model")
	for _, want := range []string{
		"MODEL `aiedge_imdb_data.llm_model`",
		"@prompt AS prompt",
		"0.2 AS temperature",
		"10 AS max_output_tokens",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query is missing %q:\n%s", want, q)
		}
	}
}

func TestModelPattern(t *testing.T) {
	valid := []string{"aiedge_imdb_data.llm_model", "my-project.dataset.model"}
	invalid := []string{"model", "a.b`; DROP TABLE x; --", "a..b", ""}
	for _, m := range valid {
		if !modelPattern.MatchString(m) {
			t.Errorf("%q should be accepted", m)
		}
	}
	for _, m := range invalid {
		if modelPattern.MatchString(m) {
			t.Errorf("%q should be rejected", m)
		}
	}
}

func TestToResult(t *testing.T) {
	tests := []struct {
		name        string
		generated   string
		safety      string
		wantBlocked bool
		wantErr     bool
	}{
		{"not blocked", " positive", `{"blocked":false,"categories":[]}`, false, false},
		{"blocked", "", `{"blocked":true}`, true, false},
		{"no safety column", "negative", "", false, false},
		{"json null", "negative", "null", false, false},
		{"corrupt", "negative", "{", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ToResult(tt.generated, tt.safety)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if r.Blocked != tt.wantBlocked {
				t.Errorf("blocked = %v, want %v", r.Blocked, tt.wantBlocked)
			}
			if r.GeneratedText != tt.generated {
				t.Errorf("generated text changed: %q", r.GeneratedText)
			}
		})
	}
}
