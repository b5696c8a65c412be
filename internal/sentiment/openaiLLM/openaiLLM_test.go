package openaiLLM

import (
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

func TestToResult(t *testing.T) {
	t.Run("answer", func(t *testing.T) {
		resp := &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{
			FinishReason: "stop",
			Message:      openai.ChatCompletionMessage{Content: "Negative"},
		}}}
		got, err := toResult(resp)
		if err != nil || got.Blocked || got.GeneratedText != "Negative" {
			t.Errorf("got %+v, %v", got, err)
		}
	})

	t.Run("content filter", func(t *testing.T) {
		resp := &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{FinishReason: "content_filter"}}}
		got, _ := toResult(resp)
		if !got.Blocked {
			t.Error("expected blocked result")
		}
	})

	t.Run("no choices", func(t *testing.T) {
		if _, err := toResult(&openai.ChatCompletion{}); !errors.Is(err, ErrNoChoices) {
			t.Errorf("expected ErrNoChoices, got %v", err)
		}
	})
}

func TestCompletionParams(t *testing.T) {
	p := completionParams("gpt-4o-mini", "prompt")
	if p.Temperature.Value != 0.2 || p.MaxCompletionTokens.Value != 10 {
		t.Errorf("unexpected sampling params %+v", p)
	}
	if len(p.Messages) != 1 {
		t.Errorf("expected one message, got %d", len(p.Messages))
	}
}
