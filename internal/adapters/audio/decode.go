package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// maxPreviewBytes bounds a downloaded preview; clips are about 30 seconds.
const maxPreviewBytes = 8 << 20

var previewClient = &http.Client{Timeout: 15 * time.Second}

// fetchPreview downloads a preview clip.
func fetchPreview(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: build preview request: %w", err)
	}
	// #nosec G107 -- URL comes from a provider API response
	resp, err := previewClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio: preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio: preview fetch status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes))
}

// decodeMP3 returns 16-bit little-endian stereo PCM and its sample rate.
func decodeMP3(r io.Reader) ([]byte, int, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode failed: %w", err)
	}
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read failed: %w", err)
	}
	if len(pcm) == 0 {
		return nil, 0, fmt.Errorf("audio: clip contains no samples")
	}
	return pcm, decoder.SampleRate(), nil
}
