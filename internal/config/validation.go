package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationErrors collects every problem found in a Config so they can be
// reported together.
type ValidationErrors struct {
	Problems []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Problems) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, p := range e.Problems {
		sb.WriteString(fmt.Sprintf("  - %s\n", p))
	}
	return sb.String()
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks push, reconnect, API and notify settings.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if u, err := url.Parse(c.Push.URL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs.add("push.url must be a ws:// or wss:// URL, got %q", c.Push.URL)
	}
	if c.Push.PongWait <= 0 {
		errs.add("push.pong_wait must be > 0")
	}

	if c.Reconnect.BaseDelay <= 0 {
		errs.add("reconnect.base_delay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		errs.add("reconnect.max_delay (%s) must be >= reconnect.base_delay (%s)", c.Reconnect.MaxDelay, c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxAttempts < 0 {
		errs.add("reconnect.max_attempts must be >= 0")
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.add("api.base_url must be an http:// or https:// URL, got %q", c.API.BaseURL)
	}
	if c.API.RatePerSecond < 1 {
		errs.add("api.rate_per_second must be >= 1")
	}
	if c.API.RetryCount < 0 {
		errs.add("api.retry_count must be >= 0")
	}

	for _, gate := range c.Watch.Gates {
		if strings.TrimSpace(gate) == "" {
			errs.add("watch.gates must not contain empty ids")
			break
		}
	}
	if c.Watch.PollInterval <= 0 {
		errs.add("watch.poll_interval must be > 0")
	}

	if err := c.Notify.Validate(); err != nil {
		errs.add("%v", err)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
