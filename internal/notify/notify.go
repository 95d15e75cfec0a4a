package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier is the interface for sending connection alerts.
type Notifier interface {
	SendConnectionLost(ctx context.Context, outage Outage) error
	SendConnectionRestored(ctx context.Context, outage Outage) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	now        func() time.Time
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		now:    time.Now,
		logger: logger,
	}
}

// SendConnectionLost sends a high priority alert for an outage.
func (c *Client) SendConnectionLost(ctx context.Context, outage Outage) error {
	if !c.config.Enabled {
		return nil
	}

	title := "Parking feed down"
	message := FormatLostMessage(outage, c.now())
	tags := c.config.Tags + ",x"

	return c.send(ctx, title, message, tags, "high")
}

// SendConnectionRestored sends a notification that an outage ended.
func (c *Client) SendConnectionRestored(ctx context.Context, outage Outage) error {
	if !c.config.Enabled {
		return nil
	}

	title := "Parking feed restored"
	message := FormatRestoredMessage(outage, c.now())
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	topicURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topicURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", topicURL),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendConnectionLost is a no-op.
func (n *NoopNotifier) SendConnectionLost(_ context.Context, _ Outage) error { return nil }

// SendConnectionRestored is a no-op.
func (n *NoopNotifier) SendConnectionRestored(_ context.Context, _ Outage) error { return nil }

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
