package ddns

import (
	"context"
	"net/netip"
)

// Resolver looks up the IP addresses that should be published.
type Resolver interface {
	Resolve(context.Context) ([]netip.Addr, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(context.Context) ([]netip.Addr, error)

// Resolve implements ddns.Resolver.
func (f ResolverFunc) Resolve(ctx context.Context) ([]netip.Addr, error) { return f(ctx) }

// Provider is a DNS provider's record-management API.
//
// ListZones and ListRecords return matches in the provider's own order.
// They are only called while constructing a client.
type Provider interface {
	ListZones(ctx context.Context, name string) ([]Zone, error)
	ListRecords(ctx context.Context, zone Zone, name string) ([]Record, error)
	UpdateRecord(ctx context.Context, update RecordUpdate) (Record, error)
}

// Zone is the provider's container for all records under a registrable domain.
type Zone struct {
	ID   string
	Name string
}

// Record is a single DNS entry inside a zone.
type Record struct {
	ID      string
	Name    string
	Type    string
	Content string
	Comment string
	TTL     int
}

// RecordUpdate holds every field sent to the provider when overwriting a record.
type RecordUpdate struct {
	ZoneID   string
	RecordID string
	Name     string
	Type     string
	TTL      int
	Content  string
	Comment  string
}
