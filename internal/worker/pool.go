// Package worker annotates freshly landed tapes in the background.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
	"github.com/Shahnab/retrotape/internal/core/services"
)

const jobTimeout = 45 * time.Second

// Job represents a background annotation of one tape's preview.
type Job struct {
	TapeID     string
	PreviewURL string
	Artist     string
	Title      string
}

// Pool manages background workers for annotation jobs.
type Pool struct {
	annotator ports.Annotator
	cache     ports.AnnotationCache
	sink      ports.AnalysisSink

	jobs   chan Job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
}

var _ services.AnnotationQueue = (*Pool)(nil)

// NewPool creates a worker pool with the given queue size. cache may be nil.
func NewPool(annotator ports.Annotator, cache ports.AnnotationCache, sink ports.AnalysisSink, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		annotator: annotator,
		cache:     cache,
		sink:      sink,
		jobs:      make(chan Job, queueSize),
		cancel:    func() {},
	}
}

// Start launches the worker goroutines. Jobs in flight are cancelled with ctx.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(ctx, job)
			}
		}()
	}
}

// Stop closes the queue and waits for workers to drain it. Pending jobs see a
// cancelled context and finish quickly.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.jobs <- job:
	default:
		log.Printf("WARN worker: dropping job for %s", job.TapeID)
	}
}

// SubmitTape queues t for annotation.
func (p *Pool) SubmitTape(t domain.Tape) {
	p.Submit(Job{TapeID: t.ID, PreviewURL: t.PreviewURL, Artist: t.Artist, Title: t.Title})
}

func (p *Pool) processJob(ctx context.Context, job Job) {
	if job.PreviewURL == "" {
		log.Printf("DEBUG worker: no preview for %s, skipping", job.TapeID)
		return
	}
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if p.cache != nil {
		a, err := p.cache.GetAnalysis(ctx, job.PreviewURL)
		if err == nil {
			p.attach(ctx, job.TapeID, a)
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("WARN worker: cache lookup for %s: %v", job.TapeID, err)
		}
	}

	energy, err := AnalyzePreviewFunc(ctx, job.PreviewURL)
	if err != nil {
		log.Printf("WARN worker: energy for %s unavailable: %v", job.TapeID, err)
		energy = 0
	}

	a, err := p.annotator.Annotate(ctx, ports.AnnotationRequest{
		Artist: job.Artist,
		Title:  job.Title,
		Energy: energy,
	})
	if err != nil {
		log.Printf("WARN worker: annotate %s: %v", job.TapeID, err)
		return
	}

	if p.cache != nil {
		if err := p.cache.SaveAnalysis(ctx, job.PreviewURL, a); err != nil {
			log.Printf("WARN worker: cache save for %s: %v", job.TapeID, err)
		}
	}
	p.attach(ctx, job.TapeID, a)
}

func (p *Pool) attach(ctx context.Context, tapeID string, a domain.Analysis) {
	err := p.sink.AttachAnalysis(ctx, tapeID, a)
	switch {
	case err == nil:
		log.Printf("DEBUG worker: annotated %s", tapeID)
	case errors.Is(err, domain.ErrTapeNotFound):
		// Removed from the desk since the job was queued.
		log.Printf("DEBUG worker: %s no longer on the desk, dropping annotation", tapeID)
	default:
		log.Printf("WARN worker: attach %s: %v", tapeID, err)
	}
}
