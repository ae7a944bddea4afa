package ddns

import (
	"context"
	"fmt"
)

// Lookup resolves the provider identifiers for target.
//
// When the provider returns more than one zone or record, the first one in provider order is used.
// A missing zone or record is reported as a *NotFoundError.
func Lookup(ctx context.Context, p Provider, target Target) (Zone, Record, error) {
	zones, err := p.ListZones(ctx, target.ZoneName)
	if err != nil {
		return Zone{}, Record{}, fmt.Errorf("error listing zones for %s: %w", target.ZoneName, err)
	}
	if len(zones) < 1 {
		return Zone{}, Record{}, &NotFoundError{Kind: "zone", Name: target.ZoneName}
	}
	zone := zones[0]

	records, err := p.ListRecords(ctx, zone, target.RecordName)
	if err != nil {
		return Zone{}, Record{}, fmt.Errorf("error listing records for %s in zone %s: %w", target.RecordName, zone.ID, err)
	}
	if len(records) < 1 {
		return Zone{}, Record{}, &NotFoundError{Kind: "record", Name: target.RecordName}
	}
	return zone, records[0], nil
}
