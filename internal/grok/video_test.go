package grok_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdmsharpe/discord-grok/internal/grok"
)

func TestGenerateImageFromURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Size   string `json:"size"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grok-imagine-image", req.Model)
		assert.Equal(t, "a lighthouse", req.Prompt)
		assert.Equal(t, "1792x1024", req.Size)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"` + server.URL + `/files/img.png"}]}`))
	})
	mux.HandleFunc("/files/img.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	})

	client := newTestClient(t, server.URL, 0)

	result, err := client.GenerateImage(context.Background(), grok.ImageRequest{
		Prompt:      "a lighthouse",
		Model:       "grok-imagine-image",
		AspectRatio: "16:9",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), result.Data)
}

func TestGenerateImageFromBase64(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// "aGVsbG8=" is base64 for "hello".
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"aGVsbG8="}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	result, err := client.GenerateImage(context.Background(), grok.ImageRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), result.Data)
}

func TestGenerateVideo(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/video/generations", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model       string `json:"model"`
			Prompt      string `json:"prompt"`
			AspectRatio string `json:"aspect_ratio"`
			Duration    int    `json:"duration"`
			Resolution  string `json:"resolution"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, grok.VideoModel, req.Model)
		assert.Equal(t, "a storm at sea", req.Prompt)
		assert.Equal(t, "16:9", req.AspectRatio)
		assert.Equal(t, 10, req.Duration)
		assert.Equal(t, "720p", req.Resolution)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"req-1","status":"pending"}`))
	})
	mux.HandleFunc("/video/generations/req-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) < 2 {
			_, _ = w.Write([]byte(`{"request_id":"req-1","status":"pending"}`))
			return
		}
		_, _ = w.Write([]byte(`{"request_id":"req-1","status":"completed","url":"` + server.URL + `/files/out.mp4"}`))
	})
	mux.HandleFunc("/files/out.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp4-bytes"))
	})

	client := newTestClient(t, server.URL, 0)

	result, err := client.GenerateVideo(context.Background(), grok.VideoRequest{
		Prompt:          "a storm at sea",
		AspectRatio:     "16:9",
		DurationSeconds: 10,
		Resolution:      "720p",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), result.Data)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestGenerateVideoFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/video/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"req-2","status":"pending"}`))
	})
	mux.HandleFunc("/video/generations/req-2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"req-2","status":"failed","error":"content policy"}`))
	})

	client := newTestClient(t, server.URL, 0)

	_, err := client.GenerateVideo(context.Background(), grok.VideoRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content policy")
}

func TestGenerateVideoCancellation(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/video/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"req-3","status":"pending"}`))
	})
	mux.HandleFunc("/video/generations/req-3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"req-3","status":"pending"}`))
	})

	client := newTestClient(t, server.URL, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateVideo(ctx, grok.VideoRequest{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
