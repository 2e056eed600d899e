// Package ollama annotates tapes with a local Ollama model. It only sees
// track metadata, never audio.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2"
)

const systemPrompt = "You label cassette mixtapes. Given a song and artist, reply with ONLY a JSON object with keys: title (a retro mixtape style title, max 5 words), summary (one sentence), mood (exactly 3 lowercase keywords), colorHex (a hex colour matching the mood, e.g. #FF5733). No conversational text."

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ports.Annotator = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Annotate(ctx context.Context, req ports.AnnotationRequest) (domain.Analysis, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage(req)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Analysis{}, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Analysis{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return domain.Analysis{}, fmt.Errorf("ollama: %s", parsed.Error)
	}

	if strings.TrimSpace(parsed.Message.Content) == "" {
		return domain.Analysis{}, fmt.Errorf("ollama: empty response")
	}

	var out domain.Analysis
	if err := json.Unmarshal([]byte(parsed.Message.Content), &out); err != nil {
		return domain.Analysis{}, fmt.Errorf("ollama: decode analysis: %w", err)
	}

	cleaned, err := out.Clean()
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("ollama: %w", err)
	}
	return cleaned, nil
}

func userMessage(req ports.AnnotationRequest) string {
	msg := fmt.Sprintf("Song: %q by %s.", req.Title, req.Artist)
	if req.Energy > 0 {
		msg += fmt.Sprintf(" Loudness %.2f on a 0-1 scale.", req.Energy)
	}
	return msg
}
