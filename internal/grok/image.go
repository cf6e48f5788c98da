package grok

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// maxDownloadSize caps generated media downloads. Discord rejects larger
// attachments anyway.
const maxDownloadSize = 100 << 20

// aspectRatioSizes maps the user-facing aspect ratio choices to concrete
// image dimensions.
var aspectRatioSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1792x1024",
	"9:16": "1024x1792",
	"4:3":  "1344x1024",
	"3:4":  "1024x1344",
}

// GenerateImage generates a single image and returns its bytes. The provider
// may answer with either a hosted URL or inline base64 data; both are handled.
func (c *sdkClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	model := req.Model
	if model == "" {
		model = DefaultImageModel
	}

	c.log.DebugContext(ctx, "Generating image", "model", model, "aspect_ratio", req.AspectRatio)

	apiReq := openai.ImageRequest{
		Model:  model,
		Prompt: req.Prompt,
		N:      1,
	}
	if size, ok := aspectRatioSizes[req.AspectRatio]; ok {
		apiReq.Size = size
	}

	resp, err := c.api.CreateImage(ctx, apiReq)
	if err != nil {
		c.log.ErrorContext(ctx, "Image generation failed", "model", model, "error", err)
		return nil, fmt.Errorf("xai image call failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no data")
	}

	item := resp.Data[0]
	switch {
	case item.URL != "":
		data, err := c.download(ctx, item.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch generated image: %w", err)
		}
		return &ImageResult{Data: data}, nil
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode generated image: %w", err)
		}
		return &ImageResult{Data: data}, nil
	default:
		return nil, fmt.Errorf("image generation returned neither url nor inline data")
	}
}

// download fetches a generated media URL, bounded by maxDownloadSize.
func (c *sdkClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("downloaded media exceeds %d bytes", maxDownloadSize)
	}
	return data, nil
}
