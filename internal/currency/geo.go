package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// Detector infers a display currency from a client IP address.
type Detector interface {
	Detect(ctx context.Context, ip string) (string, error)
}

// GeoDetector looks the client IP up with an ipapi.co compatible service.
type GeoDetector struct {
	httpClient *http.Client
	baseURL    string
}

// NewGeoDetector creates a GeoDetector.
func NewGeoDetector(httpClient *http.Client, baseURL string) *GeoDetector {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &GeoDetector{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

type geoResponse struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// Detect returns the currency for the country ip is located in. Countries
// without a supported currency map to DefaultCode. Addresses that can't be
// located (loopback, private ranges) fail with ErrDetectionFailed.
func (g *GeoDetector) Detect(ctx context.Context, ip string) (string, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return "", fmt.Errorf("%w: address %q is not routable", ErrDetectionFailed, ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+addr.String()+"/json/", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrDetectionFailed, resp.StatusCode)
	}
	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	if body.Error || body.CountryCode == "" {
		return "", fmt.Errorf("%w: no country for %s (%s)", ErrDetectionFailed, ip, body.Reason)
	}

	code, ok := ForCountry(strings.ToUpper(body.CountryCode))
	if !ok || !IsSupported(code) {
		return DefaultCode, nil
	}
	return code, nil
}
