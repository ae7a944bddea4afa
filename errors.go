package ddns

import (
	"errors"
	"fmt"
)

// ErrNoIPv4 is returned by a tick when the resolver produced no IPv4 address.
var ErrNoIPv4 = errors.New("resolver returned no IPv4 address")

// ConfigError reports configuration that can't be used to build a client.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError reports a zone or record that doesn't exist at the provider.
type NotFoundError struct {
	Kind string // "zone" or "record"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching %q", e.Kind, e.Name)
}
