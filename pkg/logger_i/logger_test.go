package logger_i

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/akolanti/MLServe/internal/config"
)

func TestLogger_LevelsAndTrace(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&config.Settings{LogLevel: "warn"}, &buf)

	log := NewLogger("test")
	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("visible warn", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("records below warn were written: %s", out)
	}
	if !strings.Contains(out, "visible warn") || !strings.Contains(out, "component=test") {
		t.Errorf("warn record missing or untagged: %s", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("expected caller source in record: %s", out)
	}

	buf.Reset()
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-42")
	log.WithTrace(ctx).Error("with trace")
	if !strings.Contains(buf.String(), "traceId=trace-42") {
		t.Errorf("trace id not attached: %s", buf.String())
	}
}

func TestInit_ProdUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&config.Settings{IsProd: true}, &buf)

	NewLogger("prod").Info("json line")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %s", buf.String())
	}
}
