package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const geolocateURL = "https://www.googleapis.com/geolocation/v1/geolocate"

// Locator resolves the rig's current position.
type Locator interface {
	Locate(ctx context.Context) (lat, lng float64, err error)
}

// GoogleLocator calls the Google Geolocation API. Without device signals the
// API falls back to IP-based positioning, which is accurate enough for
// dispatch context.
type GoogleLocator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func ProvideGoogleLocator() *GoogleLocator {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		logger.Fatal("GOOGLE_MAPS_API_KEY environment variable is not set")
	}

	return &GoogleLocator{
		apiKey:  apiKey,
		baseURL: geolocateURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type geolocateRequest struct {
	ConsiderIP bool `json:"considerIp"`
}

type geolocateResponse struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

func (g *GoogleLocator) Locate(ctx context.Context) (float64, float64, error) {
	payload, err := json.Marshal(geolocateRequest{ConsiderIP: true})
	if err != nil {
		return 0, 0, fmt.Errorf("marshal geolocate request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", g.baseURL, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return 0, 0, fmt.Errorf("build geolocate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geolocate call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geolocate API returned status %d", resp.StatusCode)
	}

	var result geolocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, fmt.Errorf("decode geolocate response: %w", err)
	}

	logger.Info("Resolved location",
		zap.Float64("lat", result.Location.Lat),
		zap.Float64("lng", result.Location.Lng),
		zap.Float64("accuracy", result.Accuracy))
	return result.Location.Lat, result.Location.Lng, nil
}
