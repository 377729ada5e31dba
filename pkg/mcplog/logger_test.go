package mcplog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func readEntries(t *testing.T, path string) []LogEntry {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("unmarshal line %d %q: %v", len(got)+1, line, err)
		}
		got = append(got, e)
	}
	return got
}

func TestSanitizeParams(t *testing.T) {
	long := strings.Repeat("x", 200)

	tests := []struct {
		name     string
		input    map[string]any
		wantKeys []string
		wantSkip []string
	}{
		{
			name:     "nil map returns empty",
			input:    nil,
			wantKeys: nil,
		},
		{
			name:     "short string passes through",
			input:    map[string]any{"dialect": "tsx"},
			wantKeys: []string{"dialect"},
		},
		{
			name:     "long code replaced with length",
			input:    map[string]any{"code": long},
			wantKeys: []string{"code_len"},
			wantSkip: []string{"code"},
		},
		{
			name:     "bool and nil pass through",
			input:    map[string]any{"flag": true, "extra": nil},
			wantKeys: []string{"flag", "extra"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := SanitizeParams(tc.input)
			for _, k := range tc.wantKeys {
				if _, ok := out[k]; !ok {
					t.Errorf("expected key %q in output", k)
				}
			}
			for _, k := range tc.wantSkip {
				if _, ok := out[k]; ok {
					t.Errorf("unexpected key %q in output", k)
				}
			}
		})
	}
}

func TestSanitizeParamsNestedOptions(t *testing.T) {
	out := SanitizeParams(map[string]any{
		"options": map[string]any{"nameHint": "cx", "attributeNames": strings.Repeat("a ", 50)},
	})

	opts, ok := out["options"].(map[string]any)
	if !ok {
		t.Fatalf("options = %T, want map", out["options"])
	}
	if opts["nameHint"] != "cx" {
		t.Errorf("nameHint = %v, want cx", opts["nameHint"])
	}
	if opts["attributeNames_len"] != 100 {
		t.Errorf("attributeNames_len = %v, want 100", opts["attributeNames_len"])
	}
}

func TestResponseBytes(t *testing.T) {
	if got := ResponseBytes(nil); got != 0 {
		t.Errorf("nil result: got %d, want 0", got)
	}

	res := mcp.NewToolResultText("hello")
	b, _ := json.Marshal(res.Content)
	if got := ResponseBytes(res); got != len(b) {
		t.Errorf("got %d, want %d", got, len(b))
	}
}

func TestLoggerWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	entries := []LogEntry{
		{Ts: time.Now().UTC().Format(time.RFC3339), Tool: "resolve_options", Params: map[string]any{}, DurationMs: 1, ResponseBytes: 100, TokensEst: 25},
		{Ts: time.Now().UTC().Format(time.RFC3339), Tool: "transform_code", Params: map[string]any{"code_len": 1200}, DurationMs: 42, ResponseBytes: 800, TokensEst: 200},
	}
	for _, e := range entries {
		if err := logger.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := readEntries(t, path)
	if len(got) != len(entries) {
		t.Fatalf("got %d lines, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i].Tool != e.Tool {
			t.Errorf("line %d: tool=%q, want %q", i, got[i].Tool, e.Tool)
		}
		if got[i].DurationMs != e.DurationMs {
			t.Errorf("line %d: duration_ms=%d, want %d", i, got[i].DurationMs, e.DurationMs)
		}
	}
}

func TestLoggerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.jsonl")

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	oldNow := Now
	Now = func() time.Time { return start.Add(25 * time.Millisecond) }
	defer func() { Now = oldNow }()

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	args := map[string]any{"code": strings.Repeat("<a/>", 40), "dialect": "jsx"}
	if err := logger.Record("transform_code", args, start, mcp.NewToolResultError("bad dialect"), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := logger.Record("analyze_code", nil, start, nil, errors.New("boom")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	logger.Close()

	got := readEntries(t, path)
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}

	first := got[0]
	if first.Ts != "2026-01-02T03:04:05Z" {
		t.Errorf("ts = %q", first.Ts)
	}
	if first.DurationMs != 25 {
		t.Errorf("duration_ms = %d, want 25", first.DurationMs)
	}
	if !first.ToolError {
		t.Error("expected tool_error for an error result")
	}
	if first.Params["code_len"] != float64(160) {
		t.Errorf("code_len = %v, want 160", first.Params["code_len"])
	}
	if first.Error != nil {
		t.Errorf("error = %q, want nil", *first.Error)
	}

	second := got[1]
	if second.Error == nil || *second.Error != "boom" {
		t.Errorf("error = %v, want boom", second.Error)
	}
	if second.ResponseBytes != 0 {
		t.Errorf("response_bytes = %d, want 0", second.ResponseBytes)
	}
}

func TestLoggerConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	const goroutines = 50
	const writesEach = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writesEach; j++ {
				_ = logger.Write(LogEntry{
					Ts:   time.Now().UTC().Format(time.RFC3339),
					Tool: "transform_code",
				})
			}
		}()
	}
	wg.Wait()

	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := len(readEntries(t, path)); got != goroutines*writesEach {
		t.Errorf("got %d lines, want %d", got, goroutines*writesEach)
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "mcp.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestNilLogger(t *testing.T) {
	logger, err := NewLogger("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger != nil {
		t.Fatal("expected nil logger for empty path")
	}

	if err := logger.Write(LogEntry{Tool: "x"}); err != nil {
		t.Errorf("Write on nil logger: %v", err)
	}
	if err := logger.Record("x", nil, time.Now(), nil, nil); err != nil {
		t.Errorf("Record on nil logger: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nil logger: %v", err)
	}
}
