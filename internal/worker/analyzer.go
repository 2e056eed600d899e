package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// maxPreviewBytes caps how much of a preview is downloaded for analysis.
const maxPreviewBytes = 4 << 20

var previewClient = &http.Client{Timeout: 15 * time.Second}

func analyzePreview(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("preview request: %w", err)
	}
	// #nosec G107 -- URL comes from a provider search response
	resp, err := previewClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("preview fetch status %d", resp.StatusCode)
	}
	return rmsEnergy(io.LimitReader(resp.Body, maxPreviewBytes))
}

// rmsEnergy decodes an MP3 stream and returns its RMS level in [0,1].
func rmsEnergy(r io.Reader) (float64, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("preview decode failed: %w", err)
	}

	buf := make([]byte, 4096)
	var sumSquares float64
	var count float64

	for {
		n, err := decoder.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			val := float64(int16(buf[i]) | int16(buf[i+1])<<8)
			sumSquares += val * val
			count++
		}
		if err != nil {
			// A capped download ends mid-frame; what was decoded still counts.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("preview read failed: %w", err)
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("preview contains no samples")
	}

	energy := math.Sqrt(sumSquares/count) / 32768.0
	return math.Min(math.Max(energy, 0), 1), nil
}

// AnalyzePreviewFunc allows tests to override the analyzer implementation.
var AnalyzePreviewFunc = analyzePreview
