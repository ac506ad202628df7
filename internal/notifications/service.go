package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"liner/internal/config"
)

const userAgent = "liner/0.1"

// Service delivers announcement lifecycle events to the listener. Call sites
// treat delivery as fire-and-forget: failures are logged, never fatal.
type Service interface {
	Notify(ctx context.Context, summary, body string) error
}

// NewService builds the notification backend selected by configuration:
// desktop (D-Bus session bus), ntfy push, or none. An ntfy method without a
// topic falls back to the noop backend.
func NewService(cfg *config.Config) Service {
	switch strings.ToLower(strings.TrimSpace(cfg.Notifications.Method)) {
	case "desktop":
		return &desktopService{}
	case "ntfy":
		topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
		if topic == "" {
			return noopService{}
		}
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return &ntfyService{
			endpoint: topic,
			client:   &http.Client{Timeout: timeout},
		}
	default:
		return noopService{}
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Notify(ctx context.Context, summary, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if summary != "" {
		req.Header.Set("Title", summary)
	}
	req.Header.Set("Priority", "default")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Notify(context.Context, string, string) error { return nil }
