package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bookshelf-ai/internal/config"
)

// maxLoggedBody caps how much of an error response is written to the log.
const maxLoggedBody = 4 << 10

// LlamaClient calls a self-hosted model server exposing POST /generate.
type LlamaClient struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewLlamaClient builds a client for cfg. The underlying http.Client is
// created once and shared by every call.
func NewLlamaClient(cfg config.LlamaConfig, log *slog.Logger) *LlamaClient {
	return &LlamaClient{
		endpoint: strings.TrimRight(cfg.BaseURL(), "/") + "/generate",
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}
}

// GenerateText sends req to the model server and returns the "text" field of
// the response, or "" when the field is absent.
func (c *LlamaClient) GenerateText(ctx context.Context, req GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Error("error communicating with generation service", "endpoint", c.endpoint, "err", err)
		return "", &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		c.log.Error("generation service returned error status",
			"status", resp.StatusCode,
			"body", string(msg),
		)
		return "", &ServiceError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("failed to read generation response", "err", err)
		return "", &ConnectionError{Err: err}
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &DecodeError{Err: err}
	}
	return out.Text, nil
}

// Close releases idle pooled connections. Call once at process shutdown.
func (c *LlamaClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
