package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fix is one GPS sample, timestamp in epoch milliseconds. Provider and
// DeviceID are filled by the sender with the provider that actually
// produced the fix.
type Fix struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
	Provider  string  `json:"provider,omitempty"`
	DeviceID  string  `json:"deviceId,omitempty"`
}

// Provider reads the device's current position. DeviceID may return empty
// for providers without a device registration.
type Provider interface {
	Name() string
	Current(ctx context.Context) (Fix, error)
	DeviceID(ctx context.Context) (string, error)
}

// Preference keys controlling provider selection.
const (
	PrefPrimaryEnabled   = "location_provider_primary"
	PrefSecondaryEnabled = "location_provider_secondary"
)

// RemoteProvider reads fixes from a local positioning agent over HTTP.
type RemoteProvider struct {
	name     string
	fixURL   string
	deviceID string
	http     *http.Client
}

func NewRemoteProvider(name, fixURL, deviceID string, timeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		name:     name,
		fixURL:   fixURL,
		deviceID: deviceID,
		http:     &http.Client{Timeout: timeout},
	}
}

func (p *RemoteProvider) Name() string { return p.name }

func (p *RemoteProvider) Current(ctx context.Context) (Fix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.fixURL, nil)
	if err != nil {
		return Fix{}, err
	}
	res, err := p.http.Do(req)
	if err != nil {
		return Fix{}, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Fix{}, fmt.Errorf("provider %s: unexpected status %d", p.name, res.StatusCode)
	}
	var fix Fix
	if err := json.NewDecoder(res.Body).Decode(&fix); err != nil {
		return Fix{}, fmt.Errorf("provider %s: decode fix: %w", p.name, err)
	}
	if fix.Lat == 0 && fix.Lng == 0 {
		return Fix{}, fmt.Errorf("provider %s: no usable fix", p.name)
	}
	if fix.Timestamp == 0 {
		fix.Timestamp = time.Now().UnixMilli()
	}
	return fix, nil
}

func (p *RemoteProvider) DeviceID(ctx context.Context) (string, error) {
	return p.deviceID, nil
}
