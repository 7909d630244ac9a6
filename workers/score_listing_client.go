// workers/score_listing_client.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"room-leaderboard-service/models"
	"room-leaderboard-service/services"
)

// GetScoresResponse is the body returned by the remote score service.
type GetScoresResponse struct {
	Scores []models.ScoreSnapshot `json:"scores"`
}

// HTTPScoreLister fetches listings from a remote score service instead of the local DB.
type HTTPScoreLister struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func NewHTTPScoreLister(baseURL, serviceToken string) *HTTPScoreLister {
	return &HTTPScoreLister{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (l *HTTPScoreLister) ListTopScores(ctx context.Context, beatmapID, limit int) ([]models.ScoreSnapshot, error) {
	if limit <= 0 || limit > services.MaxScoresPerRequest {
		limit = services.MaxScoresPerRequest
	}

	base, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid score service URL '%s': %w", l.baseURL, err)
	}
	endpointURL := base.JoinPath("api", "v1", "beatmaps", strconv.Itoa(beatmapID), "scores")
	q := endpointURL.Query()
	q.Set("limit", strconv.Itoa(limit))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", l.serviceToken)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to score service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			log.Printf("[ScoreSync] ⚠️ Failed to read error body from %s: %v", finalURL, readErr)
		}
		return nil, fmt.Errorf("score service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response GetScoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode score service response: %w", err)
	}

	if len(response.Scores) > limit {
		response.Scores = response.Scores[:limit]
	}
	return response.Scores, nil
}
