package ddns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"
)

func newCloudflareProvider(token string, opts ...cloudflare.Option) (cf *cloudflareProvider, err error) {
	if token == "" {
		return nil, &ConfigError{Field: "token", Err: errors.New("cloudflare API token cannot be empty")}
	}
	// caller options come last so they can replace the default client
	opts = append([]cloudflare.Option{cloudflare.HTTPClient(defaultHTTPClient())}, opts...)

	cf = new(cloudflareProvider)
	cf.api, err = cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = discard
	return cf, nil
}

// cloudflareProvider implements ddns.Provider.
//
// It should be constructed using newCloudflareProvider.
type cloudflareProvider struct {
	api    *cloudflare.API
	logger logrus.FieldLogger
}

func (cf *cloudflareProvider) ListZones(ctx context.Context, name string) ([]Zone, error) {
	if cf.api == nil {
		return nil, errors.New("ddns.cloudflareProvider.ListZones: provider should be constructed with newCloudflareProvider")
	}
	cf.logger.Debugf("looking up zone ID for %s...", name)
	zones, err := cf.api.ListZones(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error listing zones: %w", err)
	}
	cf.logger.Debugf("found %d zones matching %s", len(zones), name)

	result := make([]Zone, 0, len(zones))
	for _, z := range zones {
		result = append(result, Zone{ID: z.ID, Name: z.Name})
	}
	return result, nil
}

func (cf *cloudflareProvider) ListRecords(ctx context.Context, zone Zone, name string) ([]Record, error) {
	if cf.api == nil {
		return nil, errors.New("ddns.cloudflareProvider.ListRecords: provider should be constructed with newCloudflareProvider")
	}
	cf.logger.Debugf("looking up records named %s in zone %s...", name, zone.ID)
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zone.ID), cloudflare.ListDNSRecordsParams{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing DNS records: %w", err)
	}
	cf.logger.Debugf("found %d existing records: %+v", len(records), records)

	result := make([]Record, 0, len(records))
	for _, r := range records {
		result = append(result, fromCloudflare(r))
	}
	return result, nil
}

func (cf *cloudflareProvider) UpdateRecord(ctx context.Context, u RecordUpdate) (Record, error) {
	if cf.api == nil {
		return Record{}, errors.New("ddns.cloudflareProvider.UpdateRecord: provider should be constructed with newCloudflareProvider")
	}
	record, err := cf.api.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(u.ZoneID), cloudflare.UpdateDNSRecordParams{
		ID:      u.RecordID,
		Name:    u.Name,
		Type:    u.Type,
		TTL:     u.TTL,
		Content: u.Content,
		Comment: cloudflare.StringPtr(u.Comment),
	})
	if err != nil {
		return Record{}, fmt.Errorf("unable to update DNS record %s: %w", u.RecordID, err)
	}
	return fromCloudflare(record), nil
}

func fromCloudflare(r cloudflare.DNSRecord) Record {
	return Record{
		ID:      r.ID,
		Name:    r.Name,
		Type:    r.Type,
		Content: r.Content,
		Comment: r.Comment,
		TTL:     r.TTL,
	}
}

// defaultHTTPClient is used when no client is supplied with UsingHTTPClient.
// Requests time out after 30 seconds.
func defaultHTTPClient() *http.Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = 30 * time.Second
	return hc
}
