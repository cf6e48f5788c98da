// Package grok implements the xAI API integration. Chat and image generation
// go through the OpenAI-compatible endpoints; video generation uses xAI's
// asynchronous video API and is implemented directly over HTTP.
package grok

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/jdmsharpe/discord-grok/internal/config"
	"github.com/jdmsharpe/discord-grok/internal/conversation"
)

// Client defines the provider operations used by the bot handlers.
type Client interface {
	// Complete generates the next assistant reply for a conversation.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// GenerateImage generates a single image and returns its bytes.
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)

	// GenerateVideo starts an asynchronous video generation, polls until it
	// finishes, and returns the downloaded video bytes.
	GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error)
}

// CompletionRequest carries the committed history plus the pending user input
// that triggered this generation. The input is not part of History; callers
// append the exchange to the conversation only after success.
type CompletionRequest struct {
	Params  conversation.Params
	History []conversation.Entry
	Input   conversation.Entry
}

// Completion is a generated assistant reply.
type Completion struct {
	Content          string
	ReasoningContent string
}

// ImageRequest describes one image generation.
type ImageRequest struct {
	Prompt      string
	Model       string
	AspectRatio string
}

// ImageResult holds the generated image bytes.
type ImageResult struct {
	Data []byte
}

// VideoRequest describes one video generation.
type VideoRequest struct {
	Prompt          string
	AspectRatio     string
	DurationSeconds int
	Resolution      string
}

// VideoResult holds the downloaded video bytes.
type VideoResult struct {
	Data []byte
}

type sdkClient struct {
	api          *openai.Client
	httpClient   *http.Client
	log          *slog.Logger
	baseURL      string
	apiKey       string
	maxRetries   int
	retryDelay   time.Duration
	pollInterval time.Duration
}

// NewClient creates an xAI client from configuration.
func NewClient(cfg config.XAIConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("xai API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL

	logger := log.With("component", "grok_client")
	logger.Info("xAI client initialized", "base_url", cfg.BaseURL)

	return &sdkClient{
		api:          openai.NewClientWithConfig(apiCfg),
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		log:          logger,
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   time.Duration(cfg.RetryDelaySeconds) * time.Second,
		pollInterval: cfg.VideoPollInterval,
	}, nil
}

// Complete generates the next assistant reply for a conversation.
func (c *sdkClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	params := req.Params
	c.log.DebugContext(ctx, "Generating completion",
		"conversation_id", params.ID, "model", params.Model, "history_len", len(req.History), "tools", len(params.Tools))

	apiReq := openai.ChatCompletionRequest{
		Model:    params.Model,
		Messages: buildMessages(params.SystemPrompt, req.History, req.Input),
		Tools:    buildTools(params.Tools),
	}
	if params.MaxTokens > 0 {
		apiReq.MaxTokens = params.MaxTokens
	}
	if params.Temperature != nil {
		apiReq.Temperature = *params.Temperature
	}
	if params.TopP != nil {
		apiReq.TopP = *params.TopP
	}
	if params.FrequencyPenalty != nil {
		apiReq.FrequencyPenalty = *params.FrequencyPenalty
	}
	if params.PresencePenalty != nil {
		apiReq.PresencePenalty = *params.PresencePenalty
	}
	if params.ReasoningEffort != "" && IsReasoningModel(params.Model) {
		apiReq.ReasoningEffort = params.ReasoningEffort
	}

	resp, err := c.createChatCompletionWithRetries(ctx, apiReq)
	if err != nil {
		c.log.ErrorContext(ctx, "Completion failed", "conversation_id", params.ID, "error", err)
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	msg := resp.Choices[0].Message
	return &Completion{
		Content:          msg.Content,
		ReasoningContent: msg.ReasoningContent,
	}, nil
}

// createChatCompletionWithRetries retries transient provider failures
// (429/500/503) with a fixed delay, up to maxRetries extra attempts.
func (c *sdkClient) createChatCompletionWithRetries(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "xAI chat call failed, checking for retry",
			"attempt", i+1, "max_retries", c.maxRetries, "error", err)

		if !isRetriable(err) {
			return resp, fmt.Errorf("xai chat call failed: %w", err)
		}
		if i < c.maxRetries {
			select {
			case <-ctx.Done():
				return resp, fmt.Errorf("xai chat call cancelled: %w", ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}
	}

	return resp, fmt.Errorf("xai chat call failed after %d retries: %w", c.maxRetries, err)
}

// isRetriable reports whether err is a transient provider error.
func isRetriable(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// buildMessages converts the system prompt, committed history, and pending
// input into the wire message list. Entries with image URLs become
// multi-content messages; plain text stays a string body.
func buildMessages(systemPrompt string, history []conversation.Entry, input conversation.Entry) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, e := range history {
		msgs = append(msgs, entryToMessage(e))
	}
	input.Role = conversation.RoleUser
	msgs = append(msgs, entryToMessage(input))
	return msgs
}

func entryToMessage(e conversation.Entry) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	switch e.Role {
	case conversation.RoleAssistant:
		role = openai.ChatMessageRoleAssistant
	case conversation.RoleSystem:
		role = openai.ChatMessageRoleSystem
	}

	if len(e.ImageURLs) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: e.Text}
	}

	parts := make([]openai.ChatMessagePart, 0, len(e.ImageURLs)+1)
	if e.Text != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: e.Text,
		})
	}
	for _, url := range e.ImageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}

// buildTools maps the conversation's tool set to xAI server-side tool
// entries. xAI's agentic tools are addressed by type name alone.
func buildTools(tools []conversation.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{Type: openai.ToolType(t)})
	}
	return out
}
