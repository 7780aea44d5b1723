package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.reply(ctx, prompt)
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestSubmitBlankIsNoop(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context, string) (string, error) { return "x", nil }}
	p := New(gen)
	defer p.Close(context.Background())

	for _, text := range []string{"", "   ", "\n\t "} {
		if p.Submit(text, func(string) { t.Error("deliver called for blank text") }) {
			t.Errorf("Submit(%q) should report false", text)
		}
	}
	p.Close(context.Background())
	if gen.calls() != 0 {
		t.Fatalf("expected no generator calls, got %d", gen.calls())
	}
}

func TestSubmitDeliversOnce(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context, string) (string, error) { return "int main(){...}", nil }}
	p := New(gen)

	got := make(chan string, 2)
	if !p.Submit("  sort an array ", func(s string) { got <- s }) {
		t.Fatal("Submit should accept text")
	}
	p.Close(context.Background())

	if len(got) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(got))
	}
	if s := <-got; s != "int main(){...}" {
		t.Errorf("delivered %q", s)
	}
	if gen.prompts[0] != "sort an arraygive the correct code in c langugage , without any explanation, no explanation needed, just the code.there should no commments and no markdown" {
		t.Errorf("unexpected prompt %q", gen.prompts[0])
	}
}

func TestSubmitErrorBecomesText(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context, string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	p := New(gen)
	got := make(chan string, 1)
	p.Submit("hello", func(s string) { got <- s })
	p.Close(context.Background())

	s := <-got
	if !strings.HasPrefix(s, "Error: ") || !strings.Contains(s, "connection refused") {
		t.Errorf("unexpected error text %q", s)
	}
}

func TestOverlappingSubmissionsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{reply: func(ctx context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, "slow") {
			<-release
		}
		return strings.SplitN(prompt, "give", 2)[0], nil
	}}
	p := New(gen)

	got := make(chan string, 2)
	p.Submit("slow", func(s string) { got <- s })
	p.Submit("fast", func(s string) { got <- s })

	select {
	case s := <-got:
		if s != "fast" {
			t.Fatalf("expected fast result first, got %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast submission blocked behind slow one")
	}
	close(release)
	p.Close(context.Background())
	if s := <-got; s != "slow" {
		t.Errorf("expected slow result second, got %q", s)
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	gen := &fakeGenerator{reply: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	p := New(gen)
	got := make(chan string, 1)
	p.Submit("hang", func(s string) { got <- s })

	done := make(chan struct{})
	go func() {
		p.Close(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel in-flight request")
	}
	if s := <-got; !strings.HasPrefix(s, "Error:") {
		t.Errorf("expected cancellation error text, got %q", s)
	}
	if p.Submit("late", func(string) {}) {
		t.Error("Submit after Close should be refused")
	}
}

func TestCloseGivesUpOnStuckDelivery(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context, string) (string, error) { return "done", nil }}
	p := New(gen)

	// The receiver never reads, like an event loop wedged on the UI thread.
	stuck := make(chan struct{})
	defer close(stuck)
	p.Submit("hello", func(string) { <-stuck })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Close(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close took %v", elapsed)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestTextStaysOutOfInfoLog(t *testing.T) {
	out := &lockedBuffer{}
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(out)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	gen := &fakeGenerator{reply: func(context.Context, string) (string, error) { return "secret reply", nil }}
	p := New(gen)
	got := make(chan string, 1)
	p.Submit("my private prompt", func(s string) { got <- s })
	<-got
	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	logged := out.String()
	if !strings.Contains(logged, "starting request") {
		t.Fatalf("expected request to be logged, got %q", logged)
	}
	for _, secret := range []string{"private prompt", "secret reply"} {
		if strings.Contains(logged, secret) {
			t.Errorf("Info log contains %q: %s", secret, logged)
		}
	}
}
