package main

import (
	"github.com/dgnsrekt/parkgate-realtime/internal/api"
	"github.com/dgnsrekt/parkgate-realtime/internal/config"
	"github.com/dgnsrekt/parkgate-realtime/internal/realtime"
)

func newAPIClient(cfg *config.Config) *api.HTTPClient {
	return api.NewClient(
		cfg.API.BaseURL,
		cfg.API.Token,
		cfg.API.RatePerSecond,
		cfg.API.Timeout(),
		cfg.API.RetryBackoff(),
		cfg.API.RetryCount,
		logger,
	)
}

func newTransport(cfg *config.Config) *realtime.WebSocketTransport {
	wsCfg := realtime.DefaultWebSocketConfig(cfg.Push.URL)
	wsCfg.HandshakeTimeout = cfg.Push.HandshakeTimeout
	if cfg.Push.PongWait > 0 {
		wsCfg.PongWait = cfg.Push.PongWait
		wsCfg.PingPeriod = cfg.Push.PongWait * 9 / 10
	}
	if cfg.Push.MaxMessageSize > 0 {
		wsCfg.MaxMessageSize = cfg.Push.MaxMessageSize
	}
	return realtime.NewWebSocketTransport(wsCfg, logger)
}

func clientConfig(cfg *config.Config) realtime.Config {
	rc := realtime.DefaultConfig()
	rc.Manager.Backoff = realtime.Backoff{
		Base:        cfg.Reconnect.BaseDelay,
		Max:         cfg.Reconnect.MaxDelay,
		MaxAttempts: cfg.Reconnect.MaxAttempts,
	}
	rc.Manager.DialTimeout = cfg.Reconnect.DialTimeout
	return rc
}
