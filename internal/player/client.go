package player

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"liner/internal/config"
	"liner/internal/logging"
	"liner/internal/services"
)

// mpdConn is the slice of *mpd.Client the wrapper drives, injectable in tests.
type mpdConn interface {
	CurrentSong() (mpd.Attrs, error)
	Status() (mpd.Attrs, error)
	SetVolume(volume int) error
	Ping() error
	Close() error
}

// Client wraps a gompd connection with lazy dialing and mutex-serialized
// commands. MPD drops idle connections, so a failed command discards the
// connection and retries once on a fresh one.
type Client struct {
	network  string
	address  string
	password string
	timeout  time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	conn mpdConn

	dial func() (mpdConn, error)
}

// New builds a client from configuration. The connection is dialed lazily on
// first use.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	network, address := cfg.MPDNetwork()
	c := &Client{
		network:  network,
		address:  address,
		password: cfg.MPD.Password,
		timeout:  time.Duration(cfg.MPD.TimeoutSeconds) * time.Second,
		logger:   logging.NewComponentLogger(logger, "player"),
	}
	c.dial = c.dialMPD
	return c
}

// dialMPD connects with a bounded wait; gompd itself has no dial timeout.
func (c *Client) dialMPD() (mpdConn, error) {
	if c.timeout <= 0 {
		conn, err := mpd.DialAuthenticated(c.network, c.address, c.password)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	type result struct {
		conn *mpd.Client
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := mpd.DialAuthenticated(c.network, c.address, c.password)
		ch <- result{conn: conn, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.conn, nil
	case <-timer.C:
		// Reap the late connection if the dial eventually succeeds.
		go func() {
			if res := <-ch; res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("dial %s %s: timeout after %s", c.network, c.address, c.timeout)
	}
}

// CurrentTrack returns the playing track, or nil when MPD is paused, stopped,
// or playing nothing.
func (c *Client) CurrentTrack(ctx context.Context) (*Track, error) {
	var track *Track
	err := c.withConn(ctx, "current track", func(conn mpdConn) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		if status["state"] != "play" {
			track = nil
			return nil
		}
		attrs, err := conn.CurrentSong()
		if err != nil {
			return err
		}
		track = attrsToTrack(attrs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// Volume returns the current mixer volume. MPD reports -1 when no audio
// output is active; callers treat negative values as unreadable.
func (c *Client) Volume(ctx context.Context) (int, error) {
	volume := -1
	err := c.withConn(ctx, "volume", func(conn mpdConn) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		raw, ok := status["volume"]
		if !ok {
			volume = -1
			return nil
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse volume %q: %w", raw, err)
		}
		volume = parsed
		return nil
	})
	if err != nil {
		return 0, err
	}
	return volume, nil
}

// SetVolume sets an absolute volume, clamped to the MPD range 0-100.
func (c *Client) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return c.withConn(ctx, "set volume", func(conn mpdConn) error {
		return conn.SetVolume(volume)
	})
}

// Ping verifies the MPD connection, dialing if necessary.
func (c *Client) Ping(ctx context.Context) error {
	return c.withConn(ctx, "ping", func(conn mpdConn) error {
		return conn.Ping()
	})
}

// Close drops the connection if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}

func (c *Client) withConn(ctx context.Context, op string, fn func(conn mpdConn) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := c.connLocked()
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "player", op, "connect to mpd", err)
	}
	firstErr := fn(conn)
	if firstErr == nil {
		return nil
	}

	c.logger.Debug("mpd command failed, reconnecting",
		logging.String("op", op),
		logging.Error(firstErr),
	)
	c.closeLocked()
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err = c.connLocked()
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "player", op, "reconnect to mpd", err)
	}
	if err := fn(conn); err != nil {
		c.closeLocked()
		return services.Wrap(services.ErrUnavailable, "player", op, "", err)
	}
	return nil
}

func (c *Client) connLocked() (mpdConn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
