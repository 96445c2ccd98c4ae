package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"bogus": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%d want %d", in, got, want)
		}
	}
}

func TestRequestLogLevelQueryOverride(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/chat?log=debug", nil)
	if got := requestLogLevel(req); got != LevelDebug {
		t.Fatalf("got %d", got)
	}
	req = httptest.NewRequest("POST", "/api/chat?log=1", nil)
	if got := requestLogLevel(req); got != LevelDebug {
		t.Fatalf("got %d", got)
	}
}

func TestRequestLogLevelHeaderOverride(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/chat", nil)
	req.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(req); got != LevelError {
		t.Fatalf("got %d", got)
	}
}

func TestStreamLineWriterSplitsLines(t *testing.T) {
	lw := &streamLineWriter{}
	if _, err := lw.Write([]byte("data: a\nda")); err != nil { t.Fatalf("write: %v", err) }
	if _, err := lw.Write([]byte("ta: b\n")); err != nil { t.Fatalf("write: %v", err) }
	if len(lw.buf) != 0 { t.Fatalf("buffered leftovers: %q", string(lw.buf)) }
	if _, err := lw.Write([]byte("partial")); err != nil { t.Fatalf("write: %v", err) }
	if string(lw.buf) != "partial" { t.Fatalf("buf=%q", string(lw.buf)) }
}
