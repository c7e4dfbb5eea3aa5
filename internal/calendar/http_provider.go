package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
)

// HTTPProvider queries a free-busy JSON endpoint:
//
//	GET {base}/hosts/{hostID}/freebusy?from=RFC3339&to=RFC3339
//
// answering {"busy": [{"start": ..., "end": ...}]}.
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPProvider builds a provider with a request timeout.
func NewHTTPProvider(baseURL, token string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type freeBusyResponse struct {
	Busy []struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"busy"`
}

// FreeBusy fetches the host's busy intervals for the window.
func (p *HTTPProvider) FreeBusy(ctx context.Context, host *models.Host, window interval.Interval) ([]interval.Interval, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("free-busy base URL not configured")
	}

	endpoint := fmt.Sprintf("%s/hosts/%s/freebusy?from=%s&to=%s",
		p.baseURL,
		url.PathEscape(host.ID),
		url.QueryEscape(window.Start.Format(time.RFC3339)),
		url.QueryEscape(window.End.Format(time.RFC3339)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build freebusy request: %w", err)
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("freebusy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freebusy request: unexpected status %d", resp.StatusCode)
	}

	var payload freeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode freebusy response: %w", err)
	}

	busy := make([]interval.Interval, 0, len(payload.Busy))
	for _, b := range payload.Busy {
		if !b.End.After(b.Start) {
			continue
		}
		iv := interval.Clamp(interval.Interval{Start: b.Start, End: b.End}, window)
		if !iv.IsZero() {
			busy = append(busy, iv)
		}
	}
	return interval.Merge(busy), nil
}
