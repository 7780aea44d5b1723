package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"code-popup/src/llm"
	"code-popup/src/logutil"
)

// Generator performs one blocking generation call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Deliver receives the display string for one submission. It is called exactly
// once, from the request goroutine; the event loop passes a closure that posts
// back into its own goroutine.
type Deliver func(text string)

// Pool runs one goroutine per submission. There is no queue and no limit:
// overlapping submissions proceed independently and deliver in completion order.
type Pool struct {
	gen    Generator
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu     sync.Mutex
	closed bool
}

func New(gen Generator) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{gen: gen, ctx: ctx, cancel: cancel}
}

// Submit starts a request for text. Blank text is ignored and reported as false.
func (p *Pool) Submit(text string, deliver Deliver) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	p.group.Go(func() error {
		log.Info().Int("chars", len(text)).Msg("Worker: starting request")
		log.Debug().Str("text", logutil.Sanitize(text, 50)).Msg("Worker: request text")
		result := p.run(text)
		log.Info().Int("chars", len(result)).Msg("Worker: request completed")
		deliver(result)
		return nil
	})
	return true
}

func (p *Pool) run(text string) string {
	reply, err := p.gen.Generate(p.ctx, llm.BuildPrompt(text))
	if err != nil {
		log.Warn().Err(err).Msg("Worker: request failed")
		return FormatError(err)
	}
	return reply
}

// FormatError renders a failure the same way a reply is rendered: as text.
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// Close cancels in-flight requests and waits for their deliveries, or until
// ctx is done. A delivery whose receiver has stopped reading can block
// forever, so callers on a shutdown path should pass a deadline.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for deliveries: %w", ctx.Err())
	}
}
