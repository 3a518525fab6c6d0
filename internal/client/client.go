// Package client keeps a connection to one simulator's InSim port alive and
// drives the session state machine from the records it receives.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/adapter"
	"github.com/djh20/lfs-leaderboard/internal/bus"
	"github.com/djh20/lfs-leaderboard/internal/leaderboard"
	"github.com/djh20/lfs-leaderboard/internal/metrics"
	"github.com/djh20/lfs-leaderboard/internal/model"
	"github.com/djh20/lfs-leaderboard/internal/protocol"
	"github.com/djh20/lfs-leaderboard/internal/session"
	"github.com/djh20/lfs-leaderboard/internal/track"
)

const readBufferSize = 4096

// ErrPeerClosed is returned when the simulator closes the connection.
var ErrPeerClosed = errors.New("connection closed by peer")

// LapStore persists laps and lists them fastest first.
type LapStore interface {
	leaderboard.LapFinder
	Append(ctx context.Context, lap *model.Lap) error
}

// VehicleNames resolves vehicle display names and looks up mods.
type VehicleNames interface {
	leaderboard.NameResolver
	Refresh(ctx context.Context, code string) error
}

// Options configures a Client.
type Options struct {
	Name        string
	Address     string
	Password    string
	ProgramName string

	// Origin identifies this client on the lap bus.
	Origin string

	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func (o *Options) setDefaults() {
	if o.Name == "" {
		o.Name = o.Address
	}
	if o.Origin == "" {
		o.Origin = o.Name
	}
	if o.ProgramName == "" {
		o.ProgramName = "LFS Leaderboard"
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 2 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 90 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
}

// Status is a point-in-time view of a client.
type Status struct {
	Name        string        `json:"name"`
	Address     string        `json:"address"`
	Connected   bool          `json:"connected"`
	ConnectedAt time.Time     `json:"connected_at,omitempty"`
	Attempts    int           `json:"attempts"`
	LastError   string        `json:"last_error,omitempty"`
	Phase       string        `json:"phase"`
	Session     session.State `json:"session"`
}

// Client supervises the connection to one simulator. Run reconnects
// indefinitely until its context is cancelled.
type Client struct {
	opts     Options
	adapter  protocol.ProtocolAdapter
	frames   *protocol.Reassembler
	board    *leaderboard.Board
	laps     LapStore
	vehicles VehicleNames
	bus      bus.Bus
	registry *Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger

	remote chan bus.LapEvent

	mu     sync.RWMutex
	status Status
	state  *session.State
}

// New creates a client. registry and m may be nil.
func New(opts Options, laps LapStore, vehicles VehicleNames, lapBus bus.Bus, registry *Registry, m *metrics.Metrics, logger *zap.Logger) *Client {
	opts.setDefaults()
	return &Client{
		opts:     opts,
		adapter:  adapter.NewInSimAdapter(),
		frames:   protocol.NewReassembler(protocol.MaxBacklog),
		board:    leaderboard.NewBoard(laps, vehicles),
		laps:     laps,
		vehicles: vehicles,
		bus:      lapBus,
		registry: registry,
		metrics:  m,
		logger:   logger.With(zap.String("client", opts.Name)),
		remote:   make(chan bus.LapEvent),
		status:   Status{Name: opts.Name, Address: opts.Address, Phase: session.Idle.String()},
	}
}

// Name returns the client's display name.
func (c *Client) Name() string {
	return c.opts.Name
}

// Status returns a snapshot of the connection and session state.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := c.status
	if c.state != nil {
		status.Session = c.state.Snapshot()
		status.Phase = c.state.Phase().String()
	}
	return status
}

// Run connects and reconnects until ctx is cancelled. It returns nil on
// cancellation; only a failure to subscribe to the lap bus is returned.
func (c *Client) Run(ctx context.Context) error {
	unsubscribe, err := c.bus.Subscribe(func(event bus.LapEvent) {
		c.onLapEvent(ctx, event)
	})
	if err != nil {
		return fmt.Errorf("subscribe to laps: %w", err)
	}
	defer unsubscribe()

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.metrics.Reconnect(c.opts.Name)
		}

		err := c.connect(ctx, attempt+1)
		if ctx.Err() != nil {
			c.logger.Info("Client stopped")
			return nil
		}

		c.mu.Lock()
		c.status.LastError = err.Error()
		c.mu.Unlock()
		c.logger.Warn("Connection lost", zap.Error(err), zap.Duration("retry_in", c.opts.ReconnectDelay))

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("Client stopped")
			return nil
		case <-timer.C:
		}
	}
}

// connect holds one connection until it fails or ctx is cancelled.
func (c *Client) connect(ctx context.Context, attempt int) error {
	c.mu.Lock()
	c.status.Attempts = attempt
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.opts.Address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.opts.Address, err)
	}
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// unblocks a pending Write when the client is stopped
	stop := context.AfterFunc(connCtx, func() { conn.Close() })
	defer stop()

	state := session.New()
	c.frames.Reset()

	c.mu.Lock()
	c.state = state
	c.status.Connected = true
	c.status.ConnectedAt = time.Now()
	c.status.LastError = ""
	c.mu.Unlock()
	c.metrics.SetConnected(c.opts.Name, true)
	c.registry.Register(ctx, c.Status())

	defer func() {
		c.mu.Lock()
		c.status.Connected = false
		c.state = nil
		c.mu.Unlock()
		c.metrics.SetConnected(c.opts.Name, false)
		c.registry.Remove(context.Background(), c.opts.Name)
	}()

	c.logger.Info("Connected", zap.String("address", c.opts.Address))

	if err := c.send(conn, protocol.Init{
		Flags:         protocol.ISF_LOCAL,
		Version:       protocol.InSimVersion,
		AdminPassword: c.opts.Password,
		ProgramName:   c.opts.ProgramName,
	}); err != nil {
		return err
	}

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go c.readLoop(connCtx, conn, chunks, readErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return err

		case chunk := <-chunks:
			if err := c.handleChunk(ctx, conn, state, chunk); err != nil {
				return err
			}

		case event := <-c.remote:
			if err := c.handleRemoteLap(ctx, conn, state, event); err != nil {
				return err
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn net.Conn, chunks chan<- []byte, readErr chan<- error) {
	buffer := make([]byte, readBufferSize)
	for {
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		n, err := conn.Read(buffer)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrPeerClosed
			}
			readErr <- err
			return
		}
	}
}

func (c *Client) handleChunk(ctx context.Context, conn net.Conn, state *session.State, chunk []byte) error {
	if err := c.frames.Feed(chunk); err != nil {
		c.metrics.DecodeError(c.opts.Name)
		return err
	}

	for {
		record, err := c.frames.Next()
		if err != nil {
			c.metrics.DecodeError(c.opts.Name)
			return err
		}
		if record == nil {
			return nil
		}

		event, err := c.adapter.Decode(record)
		if err != nil {
			c.metrics.DecodeError(c.opts.Name)
			return fmt.Errorf("decode: %w", err)
		}
		if event == nil {
			continue
		}
		c.metrics.RecordDecoded(c.opts.Name, protocol.PacketType(record[1]).String())

		if _, ok := event.(protocol.KeepAlive); ok {
			c.registry.Touch(ctx, c.opts.Name)
		}

		c.mu.Lock()
		effects := state.Handle(event)
		c.mu.Unlock()

		if err := c.apply(ctx, conn, state, effects); err != nil {
			return err
		}
	}
}

// apply carries out effects in order. Only transport failures are returned;
// collaborator failures are logged and the effect is abandoned.
func (c *Client) apply(ctx context.Context, conn net.Conn, state *session.State, effects []session.Effect) error {
	for _, effect := range effects {
		switch e := effect.(type) {
		case session.Send:
			if err := c.send(conn, e.Command); err != nil {
				return err
			}

		case session.SendMessage:
			if err := c.send(conn, protocol.Message{Text: e.Text, Sound: protocol.SND_SYSMESSAGE}); err != nil {
				return err
			}

		case session.Render:
			if err := c.render(ctx, conn, state); err != nil {
				return err
			}

		case session.RecordLap:
			if err := c.recordLap(ctx, conn, state, e.Lap); err != nil {
				return err
			}

		case session.RefreshVehicle:
			go c.refreshVehicle(ctx, e.Code)

		case session.DiscardLap:
			c.metrics.LapDiscarded(c.opts.Name, e.Reason)
			c.logger.Info("Lap discarded",
				zap.String("reason", e.Reason),
				zap.String("time", leaderboard.FormatLapTime(e.TimeMs)),
			)
		}
	}
	return nil
}

func (c *Client) render(ctx context.Context, conn net.Conn, state *session.State) error {
	c.mu.RLock()
	ok := state.CanRender()
	req := leaderboard.Request{Track: state.TrackCode, Vehicle: state.VehicleCode, Player: state.PlayerName}
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	start := time.Now()
	buttons, err := c.board.Build(ctx, req)
	if err != nil {
		c.logger.Warn("Failed to build leaderboard", zap.Error(err))
		return nil
	}

	cmds := make([]protocol.Command, len(buttons))
	for i, btn := range buttons {
		cmds[i] = btn
	}
	if err := c.send(conn, cmds...); err != nil {
		return err
	}

	c.metrics.ObserveRender(c.opts.Name, time.Since(start))
	return nil
}

func (c *Client) recordLap(ctx context.Context, conn net.Conn, state *session.State, lap model.Lap) error {
	if err := c.laps.Append(ctx, &lap); err != nil {
		c.logger.Warn("Failed to record lap", zap.Error(err))
		return nil
	}

	c.metrics.LapRecorded(c.opts.Name, lap.TrackCode)
	c.logger.Info("Lap recorded",
		zap.String("player", lap.PlayerName),
		zap.String("vehicle", lap.VehicleCode),
		zap.String("track", lap.TrackCode),
		zap.String("time", leaderboard.FormatLapTime(lap.TimeMs)),
	)

	if err := c.bus.Publish(ctx, bus.NewLapEvent(c.opts.Origin, lap)); err != nil {
		c.logger.Warn("Failed to publish lap", zap.Error(err))
	}

	return c.render(ctx, conn, state)
}

// onLapEvent runs on the publisher's goroutine. Delivery to the owner
// goroutine happens in a new goroutine so a busy client never blocks others.
func (c *Client) onLapEvent(ctx context.Context, event bus.LapEvent) {
	if event.Origin == c.opts.Origin {
		return
	}
	go func() {
		select {
		case c.remote <- event:
		case <-ctx.Done():
		}
	}()
}

func (c *Client) handleRemoteLap(ctx context.Context, conn net.Conn, state *session.State, event bus.LapEvent) error {
	c.metrics.RemoteLap(c.opts.Name)

	lap := event.Lap
	text := NotificationText(lap, track.NameFor(lap.TrackCode), c.vehicles.NameFor(ctx, lap.VehicleCode))
	if err := c.send(conn, protocol.Message{Text: text, Sound: protocol.SND_SYSMESSAGE}); err != nil {
		return err
	}

	return c.render(ctx, conn, state)
}

// NotificationText is the chat line announcing a lap set on another simulator.
func NotificationText(lap model.Lap, trackName, vehicleName string) string {
	return fmt.Sprintf("%s set a lap of %s on %s in %s",
		lap.PlayerName, leaderboard.FormatLapTime(lap.TimeMs), trackName, vehicleName)
}

func (c *Client) refreshVehicle(ctx context.Context, code string) {
	if err := c.vehicles.Refresh(ctx, code); err != nil {
		c.logger.Warn("Failed to refresh vehicle name", zap.String("vehicle", code), zap.Error(err))
	}
}

// send encodes commands and writes them in a single call.
func (c *Client) send(conn net.Conn, cmds ...protocol.Command) error {
	var buf bytes.Buffer
	for _, cmd := range cmds {
		data, err := c.adapter.Encode(cmd)
		if err != nil {
			c.logger.Warn("Failed to encode record", zap.Error(err))
			continue
		}
		buf.Write(data)
	}
	if buf.Len() == 0 {
		return nil
	}

	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
