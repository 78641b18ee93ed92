package engine

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/goliatone/go-nodegraph/runner"
)

const (
	DefaultAddress = "127.0.0.1:1983"
	// LoadFileCommand is the engine command that loads a document from disk.
	LoadFileCommand = "-load_file"
)

// Dialer opens connections to the engine.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Connector submits graphs to a running engine: the document is written to
// disk and the engine is told over TCP to load it. The connection is kept
// open between submissions and redialed after a failure.
type Connector struct {
	address string
	files   *FileSubmitter
	handler *runner.Handler
	dialer  Dialer
	logger  Logger

	mu   sync.Mutex
	conn net.Conn
}

type ConnectorOption func(*Connector)

func WithAddress(address string) ConnectorOption {
	return func(c *Connector) {
		c.address = address
	}
}

// WithRunner sets the retry policy for dialing and sending.
func WithRunner(h *runner.Handler) ConnectorOption {
	return func(c *Connector) {
		c.handler = h
	}
}

func WithDialer(d Dialer) ConnectorOption {
	return func(c *Connector) {
		c.dialer = d
	}
}

func WithConnectorLogger(l Logger) ConnectorOption {
	return func(c *Connector) {
		c.logger = l
	}
}

func NewConnector(files *FileSubmitter, opts ...ConnectorOption) *Connector {
	c := &Connector{
		address: DefaultAddress,
		files:   files,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{Timeout: 5 * time.Second}
	}
	if c.handler == nil {
		c.handler = runner.NewHandler(
			runner.WithMaxRetries(3),
			runner.WithRetryStrategy(runner.ExponentialBackoffStrategy{
				Base:   100 * time.Millisecond,
				Factor: 2,
				Max:    2 * time.Second,
			}),
		)
	}
	c.logger = normalizeLogger(c.logger)
	return c
}

func (c *Connector) Address() string { return c.address }

// Submit writes the document and asks the engine to load it.
func (c *Connector) Submit(ctx context.Context, graphName string, payload []byte) error {
	path, err := c.files.Write(graphName, payload)
	if err != nil {
		return err
	}
	msg := LoadFileMessage(path)
	err = c.handler.Run(ctx, func(ctx context.Context) error {
		return c.send(ctx, msg)
	})
	if err != nil {
		return newError(ErrSubmitFailed, "engine did not accept load request", err, map[string]any{
			"address": c.address,
			"path":    path,
		})
	}
	c.logger.Info("engine load requested graph=%s path=%s", graphName, path)
	return nil
}

func (c *Connector) send(ctx context.Context, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := c.dialer.DialContext(ctx, "tcp", c.address)
		if err != nil {
			return err
		}
		c.conn = conn
	}

	// zero deadline clears a previous one
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		c.dropLocked()
		return err
	}
	if _, err := c.conn.Write(msg); err != nil {
		c.dropLocked()
		return err
	}
	return nil
}

func (c *Connector) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close releases the engine connection.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// LoadFileMessage builds the load command for path.
func LoadFileMessage(path string) []byte {
	return []byte(LoadFileCommand + " " + path)
}
