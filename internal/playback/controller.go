package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/leighmacdonald/rcon/rcon"
	"go.uber.org/ratelimit"
)

var (
	ErrDial           = errors.New("failed to connect to game client")
	ErrExec           = errors.New("failed to execute command")
	ErrCommandTooLong = errors.New("command too long")
)

const (
	// maxCommandLength is the largest command body a single rcon packet carries.
	maxCommandLength = 4086
	defaultTimeout   = 5 * time.Second
)

// Console is an open remote console session.
type Console interface {
	Exec(command string) (string, error)
	Close() error
}

// Dialer opens a Console.
type Dialer func(ctx context.Context, addr string, password string, timeout time.Duration) (Console, error)

func dialRCON(ctx context.Context, addr string, password string, timeout time.Duration) (Console, error) {
	console, errDial := rcon.Dial(ctx, addr, password, timeout)
	if errDial != nil {
		return nil, errDial
	}

	return console, nil
}

type Config struct {
	Address  string
	Password string
	Timeout  time.Duration
	// CommandsPerSecond paces commands sent to the client, 0 disables pacing.
	CommandsPerSecond int
}

type Option func(*Controller)

func WithDialer(dialer Dialer) Option {
	return func(c *Controller) {
		c.dial = dialer
	}
}

// Controller owns a lazily opened remote console connection. A failed command drops the
// connection and the next command dials again.
type Controller struct {
	config  Config
	dial    Dialer
	limiter ratelimit.Limiter

	mu      sync.Mutex
	console Console
}

func NewController(config Config, opts ...Option) *Controller {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	limiter := ratelimit.NewUnlimited()
	if config.CommandsPerSecond > 0 {
		limiter = ratelimit.New(config.CommandsPerSecond, ratelimit.Per(time.Second))
	}

	controller := &Controller{config: config, dial: dialRCON, limiter: limiter}

	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.console != nil
}

func (c *Controller) connect(ctx context.Context) error {
	if c.console != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	console, errDial := c.dial(dialCtx, c.config.Address, c.config.Password, c.config.Timeout)
	if errDial != nil {
		slog.Error("Remote console connection failed", log.ErrAttr(errDial), slog.String("addr", c.config.Address))

		return errors.Join(errDial, ErrDial)
	}

	slog.Info("Connected to game client", slog.String("addr", c.config.Address))

	c.console = console

	return nil
}

// Connect opens the connection if it is not already open.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connect(ctx)
}

// Send executes a command and returns the console output.
func (c *Controller) Send(ctx context.Context, command Command) (string, error) {
	if len(command) > maxCommandLength {
		return "", fmt.Errorf("%w: %d bytes", ErrCommandTooLong, len(command))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.limiter.Take()

	slog.Debug("Sending command", slog.String("command", command.String()))

	response, errExec := c.console.Exec(command.String())
	if errExec != nil {
		c.drop()

		return "", errors.Join(errExec, fmt.Errorf("%w: %s", ErrExec, command))
	}

	slog.Debug("Command response", slog.String("response", response))

	return response, nil
}

// SendAll executes commands in order, stopping at the first failure.
func (c *Controller) SendAll(ctx context.Context, commands ...Command) error {
	for _, command := range commands {
		if _, err := c.Send(ctx, command); err != nil {
			return err
		}
	}

	return nil
}

func (c *Controller) drop() {
	if c.console == nil {
		return
	}

	log.Closer(c.console)

	c.console = nil
}

func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.console == nil {
		return nil
	}

	err := c.console.Close()
	c.console = nil

	return err
}
