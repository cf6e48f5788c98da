package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Video generation is asynchronous on xAI's side and is not part of the
// OpenAI-compatible surface, so it is implemented directly: submit a job,
// poll its status until it settles, then download the result.

type videoSubmitRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
}

type videoStatusResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// GenerateVideo starts a video generation job, polls until it finishes, and
// returns the downloaded video bytes. Poll cadence comes from configuration;
// the overall deadline is the caller's context.
func (c *sdkClient) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	c.log.DebugContext(ctx, "Submitting video generation",
		"aspect_ratio", req.AspectRatio, "duration", req.DurationSeconds, "resolution", req.Resolution)

	requestID, err := c.submitVideo(ctx, req)
	if err != nil {
		return nil, err
	}

	status, err := c.pollVideo(ctx, requestID)
	if err != nil {
		return nil, err
	}

	data, err := c.download(ctx, status.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch generated video: %w", err)
	}
	return &VideoResult{Data: data}, nil
}

func (c *sdkClient) submitVideo(ctx context.Context, req VideoRequest) (string, error) {
	body, err := json.Marshal(videoSubmitRequest{
		Model:       VideoModel,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Duration:    req.DurationSeconds,
		Resolution:  req.Resolution,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode video request: %w", err)
	}

	status, err := c.videoCall(ctx, http.MethodPost, c.videoURL(""), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if status.RequestID == "" {
		return "", fmt.Errorf("video submission returned no request id")
	}
	return status.RequestID, nil
}

// pollVideo waits for the job to settle. Terminal states are "completed" and
// "done" on success, "failed" and "expired" on failure.
func (c *sdkClient) pollVideo(ctx context.Context, requestID string) (*videoStatusResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("video generation cancelled: %w", ctx.Err())
		case <-ticker.C:
		}

		status, err := c.videoCall(ctx, http.MethodGet, c.videoURL(requestID), nil)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "completed", "done":
			if status.URL == "" {
				return nil, fmt.Errorf("video generation finished without a result url")
			}
			return status, nil
		case "failed", "expired":
			msg := status.Error
			if msg == "" {
				msg = status.Status
			}
			return nil, fmt.Errorf("video generation failed: %s", msg)
		default:
			c.log.DebugContext(ctx, "Video generation pending", "request_id", requestID, "status", status.Status)
		}
	}
}

func (c *sdkClient) videoCall(ctx context.Context, method, url string, body io.Reader) (*videoStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create video request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read video response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("video call failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var status videoStatusResponse
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("failed to decode video response: %w", err)
	}
	return &status, nil
}

func (c *sdkClient) videoURL(requestID string) string {
	base := strings.TrimSuffix(c.baseURL, "/") + "/video/generations"
	if requestID == "" {
		return base
	}
	return base + "/" + requestID
}
