package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// httpCatalogClient implements CatalogClient against the catalog's search
// API. Outbound lookups are rate limited to respect the catalog's limits;
// the sequential unit loop upstream provides the rest of the backpressure.
type httpCatalogClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

var _ CatalogClient = (*httpCatalogClient)(nil)

// NewCatalogClient creates an HTTP catalog client capped at requestsPerSecond
// outbound lookups.
func NewCatalogClient(baseURL string, timeout time.Duration, requestsPerSecond float64) CatalogClient {
	return &httpCatalogClient{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// searchResponse is the catalog search payload. Results are ordered best
// match first.
type searchResponse struct {
	Results []CatalogRecord `json:"results"`
}

func (c *httpCatalogClient) FindBestMatch(ctx context.Context, title, artist string) (*CatalogRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/search?title=%s&artist=%s&limit=1",
		c.baseURL, url.QueryEscape(title), url.QueryEscape(artist))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: catalog rate limit exceeded", ErrUnavailable)
	default:
		return nil, fmt.Errorf("%w: catalog returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(search.Results) == 0 {
		return nil, nil
	}

	best := search.Results[0]
	if best.ExternalID == "" {
		return nil, fmt.Errorf("%w: catalog record has no id", ErrMalformed)
	}
	return &best, nil
}
