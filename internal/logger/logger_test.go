package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/config"
)

func TestSetupSetsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l := Setup(&config.Config{Environment: "production", LogLevel: slog.LevelWarn}, "worker")
	if slog.Default() != l {
		t.Error("Setup should install the logger as default")
	}
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
}

func TestNewFormatAndService(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo}, "api").Info("started")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("production logs should be JSON: %v (%s)", err, buf.String())
	}
	if rec["service"] != "api" {
		t.Errorf("service = %v, want api", rec["service"])
	}

	buf.Reset()
	New(&buf, &config.Config{Environment: "development"}, "").Info("started")
	if strings.Contains(buf.String(), "service=") {
		t.Errorf("empty service should not be logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "msg=started") {
		t.Errorf("development logs should be text: %s", buf.String())
	}
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	id := uuid.New()

	WithError(WithRequestID(WithWorld(base, id), "req-1"), errors.New("boom")).Info("step failed")

	out := buf.String()
	for _, want := range []string{"world_id=" + id.String(), "request_id=req-1", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}

	buf.Reset()
	WithError(base, nil).Info("fine")
	if strings.Contains(buf.String(), "error=") {
		t.Errorf("nil error should not be logged: %s", buf.String())
	}
}
