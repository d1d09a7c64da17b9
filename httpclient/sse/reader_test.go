package sse

import (
	"io"
	"strings"
	"testing"
	"time"
)

func newBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func readAll(t *testing.T, raw string) []*Event {
	t.Helper()
	r := NewReader(newBody(raw))
	defer r.Close()

	var events []*Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, ev)
	}
}

func TestReader_Events(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Event
	}{
		{"single", "data: hello world\n\n", []Event{{Data: "hello world"}}},
		{"multiple", "data: first\n\ndata: second\n\n", []Event{{Data: "first"}, {Data: "second"}}},
		{"typed", "event: connected\ndata: {}\n\n", []Event{{Event: "connected", Data: "{}"}}},
		{"id", "id: 42\ndata: x\n\n", []Event{{ID: "42", Data: "x"}}},
		{"multi-line data", "data: line1\ndata: line2\ndata: line3\n\n", []Event{{Data: "line1\nline2\nline3"}}},
		{"keep-alive comment", ": keepalive 1700000000\n\ndata: hello\n\n", []Event{{Data: "hello"}}},
		{"no space after colon", "data:no-space\n\n", []Event{{Data: "no-space"}}},
		{"trailing event without blank line", "data: trailing", []Event{{Data: "trailing"}}},
		{"crlf", "data: windows\r\n\r\n", []Event{{Data: "windows"}}},
		{"retry", "retry: 1500\ndata: x\n\n", []Event{{Retry: 1500 * time.Millisecond, Data: "x"}}},
		{"event without data is dropped", "event: orphan\n\ndata: kept\n\n", []Event{{Data: "kept"}}},
		{"empty", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := readAll(t, tc.raw)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if *got[i] != tc.want[i] {
					t.Errorf("event %d = %+v, want %+v", i, *got[i], tc.want[i])
				}
			}
		})
	}
}

func TestParseSSELine(t *testing.T) {
	tests := []struct {
		line  string
		field string
		value string
	}{
		{"data: hello", "data", "hello"},
		{"data:hello", "data", "hello"},
		{"data:  two", "data", " two"},
		{"event: msg", "event", "msg"},
		{"fieldonly", "fieldonly", ""},
	}
	for _, tt := range tests {
		f, v := parseSSELine(tt.line)
		if f != tt.field || v != tt.value {
			t.Errorf("parseSSELine(%q) = (%q, %q), want (%q, %q)", tt.line, f, v, tt.field, tt.value)
		}
	}
}
