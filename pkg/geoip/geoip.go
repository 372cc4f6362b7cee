// Package geoip resolves client IP addresses to a coarse location.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
)

// DefaultBaseURL is the ip-api.com JSON endpoint root.
const DefaultBaseURL = "http://ip-api.com/json"

// Locator resolves an IP address to a location.
type Locator interface {
	Lookup(ctx context.Context, ip string) (*models.Location, error)
}

// IPAPI calls the ip-api.com lookup endpoint.
type IPAPI struct {
	baseURL string
	client  *http.Client
}

// NewIPAPI creates a locator. A nil client gets a two second timeout.
func NewIPAPI(baseURL string, client *http.Client) *IPAPI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return &IPAPI{baseURL: baseURL, client: client}
}

type lookupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Lookup returns the country and city of ip.
func (l *IPAPI) Lookup(ctx context.Context, ip string) (*models.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("build geoip request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoip request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip returned %s", resp.Status)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode geoip response: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("geoip lookup of %s failed: %s", ip, result.Message)
	}
	return &models.Location{Country: result.Country, City: result.City}, nil
}

// Nop is a Locator that never resolves anything.
type Nop struct{}

// Lookup always returns an empty location.
func (Nop) Lookup(context.Context, string) (*models.Location, error) {
	return &models.Location{}, nil
}
