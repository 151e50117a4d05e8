package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Matcher is the collaborator interface over the matcher HTTP service
// (spec §4.9 "call the matcher HTTP with the payload").
type Matcher interface {
	Match(ctx context.Context, p Payload) ([]Match, error)
}

// HTTPMatcher calls a matcher service's REST endpoint with the
// assignment payload and decodes its ranked tutor-chat matches.
type HTTPMatcher struct {
	url        string
	httpClient *http.Client
}

// NewHTTPMatcher builds an HTTPMatcher against baseURL.
func NewHTTPMatcher(baseURL string, timeout time.Duration) *HTTPMatcher {
	return &HTTPMatcher{
		url:        baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type matchRequest struct {
	Level        string   `json:"level"`
	Subjects     []string `json:"subjects"`
	Region       string   `json:"region"`
	LearningMode string   `json:"learning_mode"`
}

type matchResponse struct {
	Matches []Match `json:"matches"`
}

// Match posts p to the matcher and returns its ranked chat matches.
func (m *HTTPMatcher) Match(ctx context.Context, p Payload) ([]Match, error) {
	body, err := json.Marshal(matchRequest{
		Level:        p.Level,
		Subjects:     p.Subjects,
		Region:       p.Region,
		LearningMode: p.LearningMode,
	})
	if err != nil {
		return nil, fmt.Errorf("delivery: encoding matcher request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("delivery: building matcher request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delivery: calling matcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("delivery: matcher returned HTTP %d", resp.StatusCode)
	}

	var decoded matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("delivery: decoding matcher response: %w", err)
	}
	return decoded.Matches, nil
}
