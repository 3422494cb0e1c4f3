package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf), WithFormat(FormatJSON), WithCaller(false)); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() { _ = Init() }()

	Named("replay").Info(context.Background(), "set replayed", Int("set", 2), Error(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["msg"] != "set replayed" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["component"] != "replay" {
		t.Errorf("component = %v", rec["component"])
	}
	if rec["set"] != float64(2) {
		t.Errorf("set = %v", rec["set"])
	}
	if rec["error"] != "boom" {
		t.Errorf("error = %v", rec["error"])
	}
	if _, ok := rec["source"]; ok {
		t.Error("source should be omitted when caller is disabled")
	}
}

func TestInit_Errors(t *testing.T) {
	defer func() { _ = Init() }()
	if err := Init(WithLevel("loud")); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() { _ = Init() }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Debug(ctx, "shown")
	out := buf.String()
	if !strings.Contains(out, "shown") {
		t.Errorf("debug record missing: %q", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("source attribute missing: %q", out)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo).With(String("match", "m1"))
	l.Warn(context.Background(), "late event")
	if !strings.Contains(buf.String(), "match=m1") {
		t.Errorf("field missing: %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	l := Nop().Named("x").With(Bool("ok", true))
	l.Error(context.Background(), "discarded")
}
