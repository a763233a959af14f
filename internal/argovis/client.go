// Package argovis is a minimal client for the Argovis platform API, enough
// to pull one float's profiles and flatten them into measurement records.
package argovis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/floatlabs/floatchat/internal/store"
)

const DefaultBaseURL = "https://argovis2.colorado.edu/api/v2"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Profile is one float profile as returned by the platform endpoint. Each
// measurement is one depth level; temp and psal may be absent per level.
type Profile struct {
	Date         string        `json:"date"`
	Lat          float64       `json:"lat"`
	Lon          float64       `json:"lon"`
	Measurements []Measurement `json:"measurements"`
}

type Measurement struct {
	Pres *float64 `json:"pres"`
	Temp *float64 `json:"temp"`
	Psal *float64 `json:"psal"`
}

// PlatformProfiles fetches every profile for one ARGO float.
func (c *Client) PlatformProfiles(ctx context.Context, floatID string) ([]Profile, error) {
	url := fmt.Sprintf("%s/platforms/ARGO/%s", c.baseURL, floatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("argovis http %d: %s", resp.StatusCode, string(body))
	}

	var profiles []Profile
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

// Flatten turns profiles into measurement records, one per depth level.
// Levels without a pressure reading and profiles with unparseable dates are
// skipped; temperature and salinity stay nullable.
func Flatten(profiles []Profile, floatID string) []store.Record {
	records := []store.Record{}
	for _, p := range profiles {
		t, err := time.Parse(time.RFC3339, p.Date)
		if err != nil {
			continue
		}
		for _, m := range p.Measurements {
			if m.Pres == nil {
				continue
			}
			records = append(records, store.Record{
				Time:        t.UTC(),
				Latitude:    p.Lat,
				Longitude:   p.Lon,
				Depth:       *m.Pres,
				Temperature: m.Temp,
				Salinity:    m.Psal,
				Platform:    floatID,
			})
		}
	}
	return records
}
