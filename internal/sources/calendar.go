package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// httpCalendarProvider implements CalendarProvider against the provider's
// JSON API.
type httpCalendarProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

var _ CalendarProvider = (*httpCalendarProvider)(nil)

// NewCalendarProvider creates an HTTP calendar provider. Each call carries
// its own timeout.
func NewCalendarProvider(baseURL string, timeout time.Duration) CalendarProvider {
	return &httpCalendarProvider{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
	}
}

func (p *httpCalendarProvider) ListEvents(ctx context.Context, from, to time.Time) ([]EventRef, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/events?from=%s&to=%s",
		p.baseURL,
		url.QueryEscape(from.Format(time.RFC3339)),
		url.QueryEscape(to.Format(time.RFC3339)),
	)

	var refs []EventRef
	if err := p.getJSON(ctx, endpoint, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (p *httpCalendarProvider) GetEvent(ctx context.Context, externalID string) (*CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/events/%s", p.baseURL, url.PathEscape(externalID))

	var ev CalendarEvent
	if err := p.getJSON(ctx, endpoint, &ev); err != nil {
		return nil, err
	}

	if err := validateEvent(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// getJSON performs a GET and decodes the JSON body. Transport and server
// errors are classified ErrUnavailable; undecodable bodies ErrMalformed.
func (p *httpCalendarProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: calendar provider returned status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// validateEvent checks the invariants the import path relies on.
func validateEvent(ev *CalendarEvent) error {
	if ev.ExternalID == "" {
		return fmt.Errorf("%w: event has no id", ErrMalformed)
	}
	if ev.Title == "" {
		return fmt.Errorf("%w: event %s has no title", ErrMalformed, ev.ExternalID)
	}
	if ev.StartsAt.IsZero() {
		return fmt.Errorf("%w: event %s has no start time", ErrMalformed, ev.ExternalID)
	}
	if !ev.EndsAt.IsZero() && ev.EndsAt.Before(ev.StartsAt) {
		return fmt.Errorf("%w: event %s ends before it starts", ErrMalformed, ev.ExternalID)
	}
	return nil
}
