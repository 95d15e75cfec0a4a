package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/parkgate-realtime/internal/notify"
)

func validConfig() Config {
	return Config{
		Push: PushConfig{URL: "ws://localhost:3000/api/v1/ws", PongWait: time.Minute},
		Reconnect: ReconnectConfig{
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			MaxAttempts: 5,
		},
		API:   APIConfig{BaseURL: "http://localhost:3000/api/v1", RatePerSecond: 5},
		Watch: WatchConfig{Gates: []string{"gate_1"}, PollInterval: time.Second},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error for valid config, got: %v", err)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Push.URL = "localhost"
	cfg.Reconnect.MaxDelay = 100 * time.Millisecond
	cfg.Watch.Gates = []string{"gate_1", " "}
	cfg.Notify = notify.Config{Enabled: true, Priority: "default"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if len(verrs.Problems) != 4 {
		t.Errorf("expected 4 problems, got %d: %v", len(verrs.Problems), verrs.Problems)
	}

	msg := err.Error()
	for _, want := range []string{"push.url", "reconnect.max_delay", "watch.gates", "notify.topic"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %s, got: %v", want, msg)
		}
	}
}

func TestValidate_APIRate(t *testing.T) {
	cfg := validConfig()
	cfg.API.RatePerSecond = 0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "api.rate_per_second") {
		t.Errorf("expected rate error, got: %v", err)
	}
}
