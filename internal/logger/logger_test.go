package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")
	defer InitWithWriter(&buf, "INFO", "text")

	Info("repository started", KeyRepository, "inventory", KeySource, "invSource")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "repository started" {
		t.Errorf("msg = %v, want %q", entry["msg"], "repository started")
	}
	if entry["repository"] != "inventory" {
		t.Errorf("repository = %v, want inventory", entry["repository"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")
	defer InitWithWriter(&buf, "INFO", "text")

	Debug("not visible")
	Info("not visible either")
	Warn("visible")

	out := buf.String()
	if strings.Contains(out, "not visible") {
		t.Errorf("filtered levels leaked into output: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn entry missing from output: %s", out)
	}
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	SetLevel("nonsense")
	if got := Level(currentLevel.Load()); got != LevelInfo {
		t.Errorf("invalid level changed current level to %v", got)
	}
}
