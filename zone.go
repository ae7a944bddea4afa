package ddns

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Target names the record kept up to date and the zone it lives in.
type Target struct {
	ZoneName   string
	RecordName string
}

// NewTarget derives the zone for recordName and returns both as a Target.
func NewTarget(recordName string) (Target, error) {
	recordName = strings.TrimSuffix(strings.TrimSpace(recordName), ".")
	zone, err := ZoneName(recordName)
	if err != nil {
		return Target{}, err
	}
	return Target{ZoneName: zone, RecordName: recordName}, nil
}

// ZoneName returns the registrable domain for recordName using the public suffix list,
// so "home.example.co.uk" gives "example.co.uk" rather than "co.uk".
func ZoneName(recordName string) (string, error) {
	if recordName == "" {
		return "", &ConfigError{Field: "record", Err: errors.New("record name cannot be empty")}
	}
	if !strings.Contains(recordName, ".") {
		return "", &ConfigError{Field: "record", Err: fmt.Errorf("%q must have at least one dot", recordName)}
	}
	zone, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(recordName))
	if err != nil {
		return "", &ConfigError{Field: "record", Err: fmt.Errorf("unable to determine zone for %q: %w", recordName, err)}
	}
	return zone, nil
}
