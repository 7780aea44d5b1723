package eventloop

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"code-popup/src/logutil"
	"code-popup/src/worker"
)

// Surface is the popup's text widget.
type Surface interface {
	Text() string
	SetText(text string)
}

type Clipboard interface {
	Write(text string) error
}

type Popup interface {
	Show()
	Hide()
	Visible() bool
}

// Dispatcher starts one background request per accepted submission.
type Dispatcher interface {
	Submit(text string, deliver worker.Deliver) bool
}

// State is the display lifecycle.
type State int32

const (
	Idle State = iota
	AwaitingResponse
	ShowingResult
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting-response"
	case ShowingResult:
		return "showing-result"
	}
	return "unknown"
}

type Options struct {
	Surface    Surface
	Clipboard  Clipboard
	Popup      Popup
	Dispatcher Dispatcher
	// AutoClear is how long a delivered result stays before the surface is emptied.
	AutoClear time.Duration
}

type eventKind int

const (
	evShow eventKind = iota
	evHide
	evSubmit
	evClear
	evResult
	evExpire
)

type event struct {
	kind eventKind
	text string
	gen  uint64
}

// Loop is the single goroutine that owns the popup, the surface contents and
// the auto-clear timer. Hotkeys, tray items, timers and request goroutines
// only post events into it.
type Loop struct {
	opts   Options
	events chan event
	done   chan struct{}
	state  atomic.Int32

	timer    *time.Timer
	timerGen uint64
}

func New(opts Options) *Loop {
	if opts.AutoClear <= 0 {
		opts.AutoClear = 80000 * time.Second
	}
	return &Loop{
		opts:   opts,
		events: make(chan event, 16),
		done:   make(chan struct{}),
	}
}

// State returns the current display state.
func (l *Loop) State() State { return State(l.state.Load()) }

// ShowPopup, HidePopup, Submit and Clear are safe to call from any goroutine
// and never block; a full queue drops the action.
func (l *Loop) ShowPopup() { l.post(event{kind: evShow}) }
func (l *Loop) HidePopup() { l.post(event{kind: evHide}) }
func (l *Loop) Submit()    { l.post(event{kind: evSubmit}) }
func (l *Loop) Clear()     { l.post(event{kind: evClear}) }

func (l *Loop) post(ev event) {
	select {
	case l.events <- ev:
	default:
		log.Warn().Int("kind", int(ev.kind)).Msg("event queue full, dropping action")
	}
}

// postWait blocks until the loop takes ev or stops. Used for results and
// timer expiry, which must not be dropped.
func (l *Loop) postWait(ev event) {
	select {
	case l.events <- ev:
	case <-l.done:
	}
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			l.handle(ev)
		}
	}
}

func (l *Loop) handle(ev event) {
	switch ev.kind {
	case evShow:
		l.opts.Popup.Show()
	case evHide:
		l.opts.Popup.Hide()
	case evSubmit:
		l.handleSubmit()
	case evClear:
		log.Debug().Msg("handleClear: clearing surface")
		l.clear()
	case evResult:
		l.handleResult(ev.text)
	case evExpire:
		if ev.gen != l.timerGen || l.timer == nil {
			log.Debug().Uint64("gen", ev.gen).Msg("stale auto-clear timer ignored")
			return
		}
		log.Debug().Msg("auto-clear timer expired")
		l.clear()
	}
}

func (l *Loop) handleSubmit() {
	text := l.opts.Surface.Text()
	accepted := l.opts.Dispatcher.Submit(text, func(result string) {
		l.postWait(event{kind: evResult, text: result})
	})
	if !accepted {
		log.Debug().Msg("handleSubmit: blank input, nothing to send")
		return
	}
	l.stopTimer()
	l.setState(AwaitingResponse)
}

func (l *Loop) handleResult(text string) {
	log.Info().Int("chars", len(text)).Msg("handleResult: delivering result")
	log.Debug().Str("text", logutil.Sanitize(text, 100)).Msg("handleResult: result text")
	l.stopTimer()

	l.opts.Surface.SetText(text)
	if err := l.opts.Clipboard.Write(text); err != nil {
		log.Error().Err(err).Msg("handleResult: clipboard write failed")
	}

	l.armTimer()
	l.setState(ShowingResult)
}

func (l *Loop) clear() {
	l.stopTimer()
	l.opts.Surface.SetText("")
	l.setState(Idle)
}

// armTimer replaces any previous timer. The generation tag lets the loop
// ignore an expiry that was already queued when the timer was stopped.
func (l *Loop) armTimer() {
	l.timerGen++
	gen := l.timerGen
	l.timer = time.AfterFunc(l.opts.AutoClear, func() {
		l.postWait(event{kind: evExpire, gen: gen})
	})
}

func (l *Loop) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerGen++
}

func (l *Loop) setState(s State) {
	if prev := State(l.state.Swap(int32(s))); prev != s {
		log.Debug().Stringer("from", prev).Stringer("to", s).Msg("display state")
	}
}
