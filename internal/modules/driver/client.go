// README: Driver lookup client for the external driver details endpoint.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bettercommute/internal/modules/trip"
)

var ErrLookupFailed = errors.New("driver lookup failed")

// details is the wire shape. Older payloads carry the ETA as "time".
type details struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
	Time         *int   `json:"time"`
	ETAMinutes   *int   `json:"etaMinutes"`
}

type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

func NewClient(baseURL, path string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	url := strings.TrimRight(baseURL, "/")
	if path != "" {
		url += "/" + strings.TrimLeft(path, "/")
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Lookup fetches the assigned driver. Every transport, status or decoding
// problem is wrapped in ErrLookupFailed.
func (c *Client) Lookup(ctx context.Context) (trip.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return trip.Quote{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return trip.Quote{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return trip.Quote{}, fmt.Errorf("%w: reading body: %v", ErrLookupFailed, err)
	}
	c.logger.Debug("driver lookup response",
		zap.String("url", c.url),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)
	if resp.StatusCode != http.StatusOK {
		return trip.Quote{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var d details
	if err := json.Unmarshal(body, &d); err != nil {
		return trip.Quote{}, fmt.Errorf("%w: decoding: %v", ErrLookupFailed, err)
	}
	q := trip.Quote{DriverName: d.Name, MobileNumber: d.MobileNumber}
	switch {
	case d.ETAMinutes != nil:
		q.ETAMinutes = *d.ETAMinutes
	case d.Time != nil:
		q.ETAMinutes = *d.Time
	default:
		return trip.Quote{}, fmt.Errorf("%w: response has no eta", ErrLookupFailed)
	}
	return q, nil
}
