package realtime

import (
	"go.uber.org/zap"
)

// Config configures a Client.
type Config struct {
	Manager        ManagerConfig
	AdminLogLength int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Manager:        DefaultManagerConfig(),
		AdminLogLength: AdminLogCapacity,
	}
}

// Client is the single entry point UI code depends on. It builds the
// registry, dispatcher, cache invalidator and connection manager together
// over one transport.
type Client struct {
	manager    *Manager
	registry   *Registry
	dispatcher *Dispatcher
	adminLog   *AdminLog
	logger     *zap.Logger
}

// New creates a Client. It does not connect; call Connect.
func New(cfg Config, transport Transport, store PartitionInvalidator, logger *zap.Logger) *Client {
	adminLog := NewAdminLog(cfg.AdminLogLength)
	invalidator := NewCacheInvalidator(store, adminLog, logger)
	registry := NewRegistry()
	dispatcher := NewDispatcher(logger, invalidator.Handle)

	return &Client{
		manager:    NewManager(cfg.Manager, transport, registry, dispatcher, logger),
		registry:   registry,
		dispatcher: dispatcher,
		adminLog:   adminLog,
		logger:     logger,
	}
}

// Connect starts connecting in the background. Completion is observed by
// polling State.
func (c *Client) Connect() { c.manager.Connect() }

// Disconnect closes the connection and forgets every topic and consumer.
func (c *Client) Disconnect() { c.manager.Disconnect() }

// Subscribe asks for updates on topic, now or on the next connect.
func (c *Client) Subscribe(topic string) { c.manager.Subscribe(topic) }

// Unsubscribe stops updates on topic.
func (c *Client) Unsubscribe(topic string) { c.manager.Unsubscribe(topic) }

// AddConsumer registers fn for every subsequent event.
func (c *Client) AddConsumer(fn Consumer) ConsumerID { return c.dispatcher.Add(fn) }

// RemoveConsumer unregisters the consumer returned by AddConsumer.
func (c *Client) RemoveConsumer(id ConsumerID) { c.dispatcher.Remove(id) }

// State returns the current connection state.
func (c *Client) State() State { return c.manager.State() }

// Topics returns the registered topics.
func (c *Client) Topics() []string { return c.registry.Topics() }

// RecentAdminUpdates returns the latest admin updates, newest first.
func (c *Client) RecentAdminUpdates() []AdminUpdate { return c.adminLog.Recent() }

// Close shuts the client down. It is Disconnect for composition roots.
func (c *Client) Close() error {
	c.manager.Disconnect()
	return nil
}
