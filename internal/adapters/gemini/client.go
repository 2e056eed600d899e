// Package gemini annotates audio and paints desk backdrops through the
// Gemini API.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

const (
	textModel   = "gemini-2.5-flash"
	imageModel  = "gemini-2.5-flash-image"
	defaultMime = "audio/webm"
)

const annotatePrompt = `Analyze this audio recording.
1. Generate a short, creative, retro-mixtape style title (max 5 words).
2. Write a one-sentence summary of the content.
3. Identify 3 mood keywords.
4. Suggest a hex color code that matches the mood of the audio (e.g., energetic=red, calm=blue).`

const backgroundPrompt = "Top-down flat lay photography of a cluttered retro 90s teenage desk surface at night. Features a glowing vintage digital alarm clock with green numbers in the corner, and an angled desk lamp casting dramatic shadows. The center of the desk is empty worn wood to place items. Aesthetic neon ambient lighting, purple and teal hues, hyper-realistic, 8k resolution, cinematic texture."

// Client talks to Gemini with an API key. A Client built without a key
// reports domain.ErrNotConfigured from every call.
type Client struct {
	models *genai.Models
}

var (
	_ ports.Annotator           = (*Client)(nil)
	_ ports.BackgroundGenerator = (*Client)(nil)
)

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":    {Type: genai.TypeString},
		"summary":  {Type: genai.TypeString},
		"mood":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"colorHex": {Type: genai.TypeString, Description: "A valid hex color code, e.g., #FF5733"},
	},
	Required: []string{"title", "summary", "mood", "colorHex"},
}

// NewClient builds a client. An empty baseURL uses the public endpoint.
func NewClient(ctx context.Context, baseURL string, apiKey string) (*Client, error) {
	if apiKey == "" {
		return &Client{}, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL + "/"}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{models: gc.Models}, nil
}

// Annotate asks for a title, summary, mood tags and colour. With a clip the
// audio itself is analysed; otherwise only the track metadata is described.
func (c *Client) Annotate(ctx context.Context, req ports.AnnotationRequest) (domain.Analysis, error) {
	if c.models == nil {
		return domain.Analysis{}, domain.ErrNotConfigured
	}

	var parts []*genai.Part
	if len(req.Clip) > 0 {
		mime := req.MimeType
		if mime == "" {
			mime = defaultMime
		}
		parts = append(parts, genai.NewPartFromBytes(req.Clip, mime), genai.NewPartFromText(annotatePrompt))
	} else {
		parts = append(parts, genai.NewPartFromText(metadataPrompt(req)))
	}

	resp, err := c.models.GenerateContent(ctx, textModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   analysisSchema,
		})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("gemini: annotate: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return domain.Analysis{}, fmt.Errorf("gemini: empty response")
	}

	var out domain.Analysis
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return domain.Analysis{}, fmt.Errorf("gemini: decode analysis: %w", err)
	}
	cleaned, err := out.Clean()
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("gemini: %w", err)
	}
	return cleaned, nil
}

func metadataPrompt(req ports.AnnotationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Describe the song %q by %s as if labelling a mixtape.", req.Title, req.Artist)
	if req.Energy > 0 {
		fmt.Fprintf(&b, " Its measured loudness is %.2f on a 0-1 scale.", req.Energy)
	}
	b.WriteString("\n")
	b.WriteString(annotatePrompt)
	return b.String()
}

// GenerateBackground renders a desk photo and returns it as a data URL.
func (c *Client) GenerateBackground(ctx context.Context) (string, error) {
	if c.models == nil {
		return "", domain.ErrNotConfigured
	}

	resp, err := c.models.GenerateContent(ctx, imageModel, genai.Text(backgroundPrompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate background: %w", err)
	}

	for _, p := range partsOf(resp) {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.InlineData.Data), nil
		}
	}
	return "", fmt.Errorf("gemini: no image in response")
}

func partsOf(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil {
		return nil
	}
	var out []*genai.Part
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		out = append(out, cand.Content.Parts...)
	}
	return out
}

func firstText(resp *genai.GenerateContentResponse) string {
	for _, p := range partsOf(resp) {
		if p != nil && strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return ""
}
