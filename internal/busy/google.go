package busy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"slotwise/backend/internal/domain"
)

const DefaultGoogleFreeBusyURL = "https://www.googleapis.com/calendar/v3/freeBusy"

// GoogleFetcher queries the Google Calendar free/busy endpoint with the connection's access token.
type GoogleFetcher struct {
	endpoint string
	client   *http.Client
}

// NewGoogleFetcher uses client as the base transport under the OAuth2 token transport.
func NewGoogleFetcher(endpoint string, client *http.Client) *GoogleFetcher {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultGoogleFreeBusyURL
	}
	return &GoogleFetcher{endpoint: endpoint, client: client}
}

type freeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []freeBusyItem `json:"items"`
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"busy"`
		Errors []struct {
			Domain string `json:"domain"`
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"calendars"`
}

func (f *GoogleFetcher) Fetch(ctx context.Context, conn domain.CalendarConnection, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error) {
	if conn.AccessToken == "" {
		return nil, errors.New("google connection has no access token")
	}
	calendarID := strings.TrimSpace(conn.CalendarID)
	if calendarID == "" {
		calendarID = "primary"
	}

	payload, err := json.Marshal(freeBusyRequest{
		TimeMin: windowStart.UTC().Format(time.RFC3339),
		TimeMax: windowEnd.UTC().Format(time.RFC3339),
		Items:   []freeBusyItem{{ID: calendarID}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode freebusy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build freebusy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient(ctx, conn.AccessToken).Do(req)
	if err != nil {
		return nil, fmt.Errorf("freebusy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("freebusy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded freeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode freebusy response: %w", err)
	}
	cal, ok := decoded.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy: calendar %q missing from response", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy: calendar %q: %s", calendarID, cal.Errors[0].Reason)
	}

	out := make([]domain.BusyInterval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		out = append(out, domain.BusyInterval{Start: b.Start.UTC(), End: b.End.UTC(), Source: domain.BusySourceGoogle})
	}
	return Clip(out, windowStart, windowEnd), nil
}

func (f *GoogleFetcher) httpClient(ctx context.Context, accessToken string) *http.Client {
	if f.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
}
