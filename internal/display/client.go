package display

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/smart-billboard/internal/upstream"
)

// MessageRequest is sent to the message service. When Preset is set the
// coordinates are omitted.
type MessageRequest struct {
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"locationName,omitempty"`
	Preset       string   `json:"-"`
}

const msgGenerateFailed = "Failed to generate message."

// NewPollingClient builds the upstream client for calls made on every poll
// tick. It never retries and its breaker never opens, so each tick reaches
// the remote end and a failed cycle just waits for the next one.
func NewPollingClient(name string, httpClient *http.Client) *upstream.Client {
	return upstream.NewClient(name, httpClient, upstream.NoRetry, upstream.WithoutTripping())
}

// APIError is a non-success answer from the message service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// APIClient calls POST /api/generate-message.
type APIClient struct {
	baseURL string
	client  *upstream.Client
}

func NewAPIClient(client *upstream.Client, baseURL string) *APIClient {
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a *APIClient) GenerateMessage(ctx context.Context, req MessageRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	endpoint := a.baseURL + "/api/generate-message"
	if req.Preset != "" {
		endpoint += "?" + url.Values{"location": {req.Preset}}.Encode()
	}

	resp, err := a.client.Do(ctx, func() (*http.Request, error) {
		r, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return "", toAPIError(err)
	}
	defer resp.Body.Close()

	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode message response: %w", err)
	}
	return out.Message, nil
}

// toAPIError surfaces the service's {"error": ...} body when there is one.
func toAPIError(err error) error {
	var se *upstream.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) != nil || body.Error == "" {
		return &APIError{Status: se.Code, Message: msgGenerateFailed}
	}
	return &APIError{Status: se.Code, Message: body.Error}
}
