package ports

import (
	"context"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

// AnnotationRequest is what an annotator may look at. Clip may be empty when
// only metadata is available.
type AnnotationRequest struct {
	Clip     []byte
	MimeType string
	Artist   string
	Title    string
	Energy   float64 // RMS loudness in [0,1], zero when unknown
}

// Annotator produces cosmetic metadata for a piece of audio.
type Annotator interface {
	Annotate(ctx context.Context, req AnnotationRequest) (domain.Analysis, error)
}

// BackgroundGenerator renders a desk backdrop and returns it as a data URL.
type BackgroundGenerator interface {
	GenerateBackground(ctx context.Context) (string, error)
}

// AnnotationCache remembers annotations by a stable key such as a preview URL.
type AnnotationCache interface {
	// GetAnalysis returns domain.ErrNotFound on a miss.
	GetAnalysis(ctx context.Context, key string) (domain.Analysis, error)
	SaveAnalysis(ctx context.Context, key string, a domain.Analysis) error
}

// AnalysisSink receives finished annotations.
type AnalysisSink interface {
	AttachAnalysis(ctx context.Context, tapeID string, a domain.Analysis) error
}
