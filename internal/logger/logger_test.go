package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestComponentLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "debug", Output: &buf})

	log.Component("chat").Info().Str("turn", "1").Msg("hello")

	out := buf.String()
	for _, want := range []string{`"service":"policy-assistant"`, `"component":"chat"`, `"turn":"1"`, `"message":"hello"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "warn", Output: &buf})

	log.LogStoreOperation("add_policy", "OK", time.Millisecond, 3, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected debug entry to be filtered, got %s", buf.String())
	}

	log.LogHTTPRequest("GET", "/api/policies", 404, time.Millisecond)
	if !strings.Contains(buf.String(), `"status":404`) {
		t.Fatalf("expected warn entry for 404, got %s", buf.String())
	}
}

func TestHelpersDoNotRepeatComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "debug", Output: &buf})

	log.Component("http").LogHTTPRequest("GET", "/api/policies", 200, time.Millisecond)
	log.Component("store").LogStoreOperation("add_policy", "OK", time.Millisecond, 3, nil)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if n := strings.Count(line, `"component"`); n != 1 {
			t.Fatalf("expected one component key, got %d in %s", n, line)
		}
	}
}
