package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"":      logrus.InfoLevel,
		"loud":  logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONOutsideLocal(t *testing.T) {
	l := New("production", "info")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithRun("run-1").WithField("stage", "select").Info("stage done")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if m["run_id"] != "run-1" || m["stage"] != "select" || m["msg"] != "stage done" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestNew_TextLocally(t *testing.T) {
	l := New("local", "debug")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text formatter output, got %q", buf.String())
	}
}

func TestWithError(t *testing.T) {
	l := New("production", "info")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Fatalf("missing error field: %q", buf.String())
	}
	if l.WithError(nil) != l.Entry {
		t.Fatalf("nil error should return the base entry")
	}
}
