package ddns

import (
	"context"
	"fmt"
	"time"
)

type state int

const (
	stopped state = iota
	running
)

func (s state) String() string {
	switch s {
	case stopped:
		return "stopped"
	case running:
		return "running"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Running reports whether the update loop has been started and not yet stopped.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == running
}

// Start runs the update loop in a new goroutine and returns immediately.
//
// The first tick runs right away and each following tick waits for the configured interval.
// Tick errors are logged and never stop the loop.
// Calling Start on a running client only logs a warning.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == running {
		c.logger.Warn("DDNS service is already running")
		return
	}

	c.logger.Info("Starting DDNS service")
	c.state = running
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.quit, c.done)
	c.logger.Info("DDNS service started")
}

// Stop signals the update loop to exit and blocks until it has.
//
// A tick that is already in flight is allowed to finish; only the wait between ticks is cut short.
// Calling Stop on a stopped client only logs a warning.
// The client can be started again once Stop returns.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != running {
		c.logger.Warn("DDNS service is not running")
		return
	}

	c.logger.Info("Stopping DDNS service")
	close(c.quit)
	<-c.done
	c.state = stopped
	c.quit, c.done = nil, nil
	c.logger.Info("DDNS service stopped")
}

func (c *Client) loop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-quit:
			return
		default:
		}

		c.logger.Debug("Running DDNS update tick")
		// ticks run to completion even if Stop is called mid-request
		if err := c.tick(context.Background()); err != nil {
			c.logger.WithError(err).Error("Error during DDNS update")
		}

		t := time.NewTimer(c.interval)
		select {
		case <-quit:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// tick is RunDDNS with panics in a resolver or provider turned into errors.
func (c *Client) tick(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("recovered from panic during update: %v", v)
		}
	}()
	return c.RunDDNS(ctx)
}
