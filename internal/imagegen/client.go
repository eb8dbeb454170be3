// Package imagegen talks to an HTTP image-generation server (SANA/SD-style
// JSON-in, image-bytes-out) and stores results on disk. Image generation is
// best-effort: the orchestrator proceeds without a picture when it fails.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrGenerationFailed wraps any server-side image generation failure.
var ErrGenerationFailed = errors.New("image generation failed")

// Config for the image server client.
type Config struct {
	BaseURL     string
	SavePath    string
	StyleSuffix string
	Ratio       string
	Timeout     time.Duration
}

// Client generates one image per prompt and returns the saved file path as
// the image reference.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	savePath    string
	styleSuffix string
	ratio       string
	log         *zap.Logger
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Ratio  string `json:"ratio"`
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("image server base URL is not configured")
	}
	if cfg.SavePath == "" {
		return nil, errors.New("image save path is not configured")
	}
	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image save path: %w", err)
	}
	ratio := cfg.Ratio
	if ratio == "" {
		ratio = "3:2"
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		savePath:    cfg.SavePath,
		styleSuffix: cfg.StyleSuffix,
		ratio:       ratio,
		log:         log,
	}, nil
}

// Generate renders prompt (plus the configured style suffix) to an image
// file and returns its path.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	data, err := c.callServer(ctx, prompt+c.styleSuffix)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: server returned empty image data", ErrGenerationFailed)
	}

	fileName := uuid.NewString() + ".png"
	filePath := filepath.Join(c.savePath, fileName)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	c.log.Info("image generated",
		zap.String("path", filePath),
		zap.Int("size_bytes", len(data)),
	)
	return filePath, nil
}

func (c *Client) callServer(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt, Ratio: c.ratio})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	return data, nil
}
