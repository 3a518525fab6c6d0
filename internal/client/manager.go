package client

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Manager runs one Client per configured simulator.
type Manager struct {
	clients []*Client
	logger  *zap.Logger
}

// NewManager creates a manager for the given clients
func NewManager(clients []*Client, logger *zap.Logger) *Manager {
	return &Manager{clients: clients, logger: logger}
}

// Clients returns the managed clients
func (m *Manager) Clients() []*Client {
	return m.clients
}

// Run starts every client and blocks until all of them have stopped.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for _, c := range m.clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				m.logger.Error("Client failed", zap.String("client", c.Name()), zap.Error(err))
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(c)
	}

	m.logger.Info("Clients started", zap.Int("count", len(m.clients)))
	wg.Wait()
	return firstErr
}

// Sessions returns the status of every client
func (m *Manager) Sessions() []Status {
	sessions := make([]Status, 0, len(m.clients))
	for _, c := range m.clients {
		sessions = append(sessions, c.Status())
	}
	return sessions
}
