package easypost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAPIClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateShipment creates a shipment and returns rated options.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*Shipment, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v2/shipments", apiKey, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var shipment Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipment); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}
	return &shipment, nil
}

// BuyShipment purchases the given rate for a shipment.
func (c *HTTPAPIClient) BuyShipment(ctx context.Context, apiKey, shipmentID, rateID string) (*Shipment, error) {
	path := fmt.Sprintf("/v2/shipments/%s/buy", shipmentID)
	body := map[string]any{"rate": map[string]string{"id": rateID}}

	resp, err := c.doRequest(ctx, http.MethodPost, path, apiKey, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var shipment Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipment); err != nil {
		return nil, fmt.Errorf("failed to decode buy response: %w", err)
	}
	return &shipment, nil
}

// CheckCredential verifies the API key with an authenticated read.
func (c *HTTPAPIClient) CheckCredential(ctx context.Context, apiKey string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v2/addresses", apiKey, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, apiKey string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("User-Agent", "labelrun/1.0")

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
// EasyPost wraps errors as {"error": {"code": ..., "message": ...}}.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var wrapped struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Code != "" {
		wrapped.Error.StatusCode = resp.StatusCode
		return &wrapped.Error
	}

	return &APIError{
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:    string(body),
		StatusCode: resp.StatusCode,
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
