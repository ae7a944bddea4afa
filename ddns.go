package ddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is the wait between the end of one update tick and the start of the next.
	DefaultInterval = 1800 * time.Second

	// DefaultIPService is queried for the public IPv4 address when no resolver is configured.
	DefaultIPService = "https://api.ipify.org"

	recordType = "A"
	recordTTL  = 1 // cloudflare treats 1 as "automatic"
)

var discard = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New resolves the zone and record for recordName and returns a client ready to keep it updated.
//
// Resolution happens exactly once, here.
// An unusable record name is reported as a *ConfigError,
// and a zone or record the provider doesn't know about as a *NotFoundError.
// A provider option such as UsingCloudflare is required.
func New(ctx context.Context, recordName string, options ...clientOption) (*Client, error) {
	target, err := NewTarget(recordName)
	if err != nil {
		return nil, fmt.Errorf("ddns.New: %w", err)
	}
	c := &Client{
		target:   target,
		interval: DefaultInterval,
		logger:   discard,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("ddns.New: option %d returned an error: %w", i, err)
		}
	}

	if c.provider == nil {
		return nil, fmt.Errorf("ddns.New: %w", &ConfigError{
			Field: "provider",
			Err:   errors.New("no DNS provider was registered and there is no default option - use ddns.UsingCloudflare or similar"),
		})
	}
	if c.resolver == nil {
		if c.resolver, err = WebResolver(DefaultIPService); err != nil {
			return nil, fmt.Errorf("ddns.New: %w", err)
		}
	}

	// options may run in any order, so dependencies are wired only once all of them have been applied
	if err := c.propagate(); err != nil {
		return nil, fmt.Errorf("ddns.New: %w", err)
	}

	c.logger.Debugf("Using DNS record %s in zone %s", target.RecordName, target.ZoneName)
	c.zone, c.record, err = Lookup(ctx, c.provider, target)
	if err != nil {
		return nil, fmt.Errorf("ddns.New: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"zone_id":   c.zone.ID,
		"record_id": c.record.ID,
	}).Debugf("Resolved DNS record %s", target.RecordName)

	if c.autostart {
		c.Start()
	}
	return c, nil
}

type clientOption func(*Client) error

// UsingCloudflare selects Cloudflare as the DNS provider.
// The token needs Zone:Read and DNS:Edit permissions for the record's zone.
func UsingCloudflare(token string, opts ...cloudflare.Option) clientOption {
	return func(c *Client) (err error) {
		if c.provider, err = newCloudflareProvider(token, opts...); err != nil {
			return fmt.Errorf("ddns.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

// UsingProvider selects any Provider implementation.
func UsingProvider(p Provider) clientOption {
	return func(c *Client) error {
		if p == nil {
			return errors.New("ddns.UsingProvider: provider cannot be nil")
		}
		c.provider = p
		return nil
	}
}

// UsingResolver sets the resolver used to look up the current IP.
// A nil resolver restores the default web resolver.
func UsingResolver(resolver Resolver) clientOption {
	return func(c *Client) error {
		c.resolver = resolver
		return nil
	}
}

// UsingWebResolver is shorthand for UsingResolver(WebResolver(serviceURL...)).
func UsingWebResolver(serviceURL ...string) clientOption {
	return func(c *Client) error {
		r, err := WebResolver(serviceURL...)
		if err != nil {
			return fmt.Errorf("ddns.UsingWebResolver: %w", err)
		}
		c.resolver = r
		return nil
	}
}

// WithLogger sets the logger for the client and every dependency that accepts one.
func WithLogger(logger logrus.FieldLogger) clientOption {
	return func(c *Client) error {
		if logger == nil {
			logger = discard
		}
		c.logger = logger
		return nil
	}
}

// UsingHTTPClient sets the http client used by the resolver and provider.
func UsingHTTPClient(httpclient *http.Client) clientOption {
	return func(c *Client) error {
		c.httpClient = httpclient
		return nil
	}
}

// WithInterval sets the wait between update ticks.
func WithInterval(interval time.Duration) clientOption {
	return func(c *Client) error {
		if interval <= 0 {
			return &ConfigError{Field: "interval", Err: fmt.Errorf("must be positive; got %s", interval)}
		}
		c.interval = interval
		return nil
	}
}

// WithAutostart starts the update loop as soon as New has resolved the record.
func WithAutostart(autostart bool) clientOption {
	return func(c *Client) error {
		c.autostart = autostart
		return nil
	}
}

func (c *Client) propagate() error {
	type setLogger interface {
		SetLogger(logrus.FieldLogger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}

	switch p := c.provider.(type) {
	case *cloudflareProvider:
		p.logger = c.logger
		if c.httpClient != nil {
			if err := cloudflare.HTTPClient(c.httpClient)(p.api); err != nil {
				return fmt.Errorf("error setting cloudflare http client: %w", err)
			}
		}
	case setLogger:
		p.SetLogger(c.logger)
	}
	if hc, ok := c.provider.(setHTTPClient); ok && c.httpClient != nil {
		hc.SetHTTPClient(c.httpClient)
	}

	switch r := c.resolver.(type) {
	case *webResolver:
		if c.httpClient != nil {
			r.httpClient = c.httpClient
		}
	case setLogger:
		r.SetLogger(c.logger)
	}
	if hc, ok := c.resolver.(setHTTPClient); ok && c.httpClient != nil {
		hc.SetHTTPClient(c.httpClient)
	}
	return nil
}

// Client keeps a single A record pointed at the current public IPv4 address.
//
// Each tick compares the resolved IP with the last IP successfully written.
// The record is only updated when they differ.
// The first update after New always happens, since nothing has been written yet.
type Client struct {
	resolver   Resolver
	provider   Provider
	httpClient *http.Client
	logger     logrus.FieldLogger

	target    Target
	zone      Zone
	record    Record
	interval  time.Duration
	autostart bool

	tickMu sync.Mutex // serializes ticks

	ipMu   sync.Mutex
	lastIP netip.Addr // zero value until the first successful update

	mu    sync.Mutex // guards the fields below
	state state
	quit  chan struct{}
	done  chan struct{}
}

// Zone returns the zone resolved by New.
func (c *Client) Zone() Zone { return c.zone }

// Record returns the record resolved by New.
func (c *Client) Record() Record { return c.record }

// LastIP returns the IP most recently written to the record.
// It is the zero netip.Addr until an update has succeeded.
func (c *Client) LastIP() netip.Addr {
	c.ipMu.Lock()
	defer c.ipMu.Unlock()
	return c.lastIP
}

// RunDDNS runs a single update tick.
//
// It resolves the current IPv4 address and updates the record when that address differs from the last one written.
// The remembered IP only changes after the provider accepts the update,
// so a failed update is attempted again by the next tick.
func (c *Client) RunDDNS(ctx context.Context) error {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	addrs, err := c.resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("error getting IPs: %w", err)
	}
	ip, err := firstIPv4(addrs)
	if err != nil {
		return err
	}
	c.logger.Debugf("Retrieved current public IP: %s", ip)

	previous := c.LastIP()
	if ip == previous {
		return nil
	}
	c.logger.Infof("IP changed from %s to %s, updating DNS record", describeIP(previous), ip)

	comment := makeComment(previous, ip)
	c.logger.Debugf("Generated comment: %s", comment)

	result, err := c.provider.UpdateRecord(ctx, RecordUpdate{
		ZoneID:   c.zone.ID,
		RecordID: c.record.ID,
		Name:     c.target.RecordName,
		Type:     recordType,
		TTL:      recordTTL,
		Content:  ip.String(),
		Comment:  comment,
	})
	if err != nil {
		return fmt.Errorf("error updating %s to %s: %w", c.target.RecordName, ip, err)
	}

	c.ipMu.Lock()
	c.lastIP = ip
	c.ipMu.Unlock()

	c.logger.Infof("Updated DNS record %s to %s with comment '%s'", c.target.RecordName, result.Content, result.Comment)
	c.logger.Debugf("Set previous IP to %s", ip)
	c.logger.Debugf("%+v", result)
	return nil
}

func makeComment(previous, ip netip.Addr) string {
	if !previous.IsValid() {
		return fmt.Sprintf("Initial DDNS update to %s", ip)
	}
	return fmt.Sprintf("DDNS update from %s to %s", previous, ip)
}

func describeIP(a netip.Addr) string {
	if !a.IsValid() {
		return "(none)"
	}
	return a.String()
}

func firstIPv4(addrs []netip.Addr) (netip.Addr, error) {
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			return a, nil
		}
	}
	return netip.Addr{}, ErrNoIPv4
}
