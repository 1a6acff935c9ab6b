// Package producer supplies fusion.ProducerFn implementations backed by the
// external inference services and an optional Redis response cache.
package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fusion-engine/internal/common/fuserr"
	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/fusion"
)

// Client calls one inference backend over HTTP and adapts its answer to the
// producer contract.
type Client struct {
	name       fusion.Producer
	baseURL    string
	maxRetries int
	client     *http.Client
	logger     logger.Logger
}

func NewClient(name fusion.Producer, baseURL string, maxRetries int, log logger.Logger) *Client {
	return &Client{
		name:       name,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		// No client-level timeout; the request context carries the deadline.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"producer": string(name),
		}),
	}
}

// Produce satisfies fusion.ProducerFn.
func (c *Client) Produce(ctx context.Context, input string) (fusion.CandidateResult, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"input": input,
	})

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fusion.CandidateResult{}, fuserr.NewProducerTimeoutError(string(c.name), 0)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/infer", bytes.NewBuffer(body))
		if err != nil {
			return fusion.CandidateResult{}, fuserr.NewProducerError(string(c.name), err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return fusion.CandidateResult{}, fuserr.NewProducerTimeoutError(string(c.name), 0)
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fusion.CandidateResult{}, fuserr.NewProducerTimeoutError(string(c.name), 0)
		}
		return fusion.CandidateResult{}, fuserr.NewProducerError(string(c.name), lastErr)
	}
	if resp == nil {
		return fusion.CandidateResult{}, fuserr.NewProducerError(string(c.name), fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Content    string  `json:"content"`
		Confidence float64 `json:"confidence"`
		Category   int     `json:"category"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return fusion.CandidateResult{}, fuserr.NewProducerError(string(c.name), fmt.Errorf("decode error: %w", err))
	}

	// An out-of-range confidence is tolerated the way an uncalibrated model
	// is: reset to uninformative rather than rejected.
	if apiResponse.Confidence < 0 || apiResponse.Confidence > 1 {
		apiResponse.Confidence = 0.5
	}
	if apiResponse.Category < 0 || apiResponse.Category > 9 {
		return fusion.CandidateResult{}, fuserr.NewProducerBadResponseError(string(c.name),
			fmt.Sprintf("category %d outside [0,9]", apiResponse.Category))
	}

	c.logger.Debug("producer call completed", map[string]interface{}{
		"confidence": apiResponse.Confidence,
		"category":   apiResponse.Category,
	})

	return fusion.CandidateResult{
		Content:    apiResponse.Content,
		Confidence: apiResponse.Confidence,
		Category:   apiResponse.Category,
	}, nil
}
