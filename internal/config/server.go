package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type ServerConfig struct {
	Port             string
	GateCount        int
	ZoneTickInterval time.Duration
	ZoneTickEnabled  bool
}

func LoadServerConfig() (*ServerConfig, error) {
	gateCount, err := strconv.Atoi(getEnvOrDefault("FIXTURES_GATE_COUNT", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid FIXTURES_GATE_COUNT: %w", err)
	}

	// Parse zone tick interval
	tickStr := getEnvOrDefault("ZONE_TICK_INTERVAL", "2s")
	tick, err := time.ParseDuration(tickStr)
	if err != nil {
		tick = 2 * time.Second // Default to 2s on parse error
	}

	cfg := &ServerConfig{
		Port:             getEnvOrDefault("PORT", "3000"),
		GateCount:        gateCount,
		ZoneTickInterval: tick,
		ZoneTickEnabled:  getEnvOrDefault("ZONE_TICK_ENABLED", "true") == "true",
	}

	// Validate
	if cfg.GateCount < 1 {
		return nil, fmt.Errorf("invalid FIXTURES_GATE_COUNT: %d (must be >= 1)", cfg.GateCount)
	}
	if cfg.ZoneTickInterval <= 0 {
		return nil, fmt.Errorf("invalid ZONE_TICK_INTERVAL: %s (must be > 0)", cfg.ZoneTickInterval)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
