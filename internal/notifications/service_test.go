package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"liner/internal/config"
)

func TestNewServiceSelectsBackend(t *testing.T) {
	tests := []struct {
		name   string
		method string
		topic  string
		want   string
	}{
		{name: "desktop", method: "desktop", want: "desktop"},
		{name: "ntfy with topic", method: "ntfy", topic: "https://ntfy.sh/liner", want: "ntfy"},
		{name: "ntfy without topic degrades", method: "ntfy", want: "noop"},
		{name: "none", method: "none", want: "noop"},
		{name: "desktop is case-insensitive", method: "Desktop", want: "desktop"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Notifications.Method = tc.method
			cfg.Notifications.NtfyTopic = tc.topic

			var got string
			switch NewService(&cfg).(type) {
			case *desktopService:
				got = "desktop"
			case *ntfyService:
				got = "ntfy"
			case noopService:
				got = "noop"
			}
			if got != tc.want {
				t.Errorf("backend = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNtfyNotifySendsHeadersAndBody(t *testing.T) {
	var captured struct {
		method   string
		title    string
		priority string
		agent    string
		body     string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.title = r.Header.Get("Title")
		captured.priority = r.Header.Get("Priority")
		captured.agent = r.Header.Get("User-Agent")
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		captured.body = string(payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.Method = "ntfy"
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)

	err := svc.Notify(context.Background(), "Now announcing", "Don't Stop Me Now by Queen")
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if captured.method != http.MethodPost {
		t.Errorf("method = %s, want POST", captured.method)
	}
	if captured.title != "Now announcing" {
		t.Errorf("Title header = %q", captured.title)
	}
	if captured.priority != "default" {
		t.Errorf("Priority header = %q", captured.priority)
	}
	if captured.agent != userAgent {
		t.Errorf("User-Agent header = %q", captured.agent)
	}
	if captured.body != "Don't Stop Me Now by Queen" {
		t.Errorf("body = %q", captured.body)
	}
}

func TestNtfyNotifyReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.Method = "ntfy"
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)

	err := svc.Notify(context.Background(), "Now announcing", "body")
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "topic over quota") {
		t.Errorf("error should carry status and body, got %v", err)
	}
}

func TestNoopNotifyNeverFails(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Method = "none"
	svc := NewService(&cfg)

	if err := svc.Notify(context.Background(), "summary", "body"); err != nil {
		t.Fatalf("noop Notify returned %v", err)
	}
}
