package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	logFileName = "code_popup_debug.log"
	maxArchives = 3
)

var maxSizeBytes int64 = 10 * 1024 * 1024 // 10 MB

type Options struct {
	EnableFileLogging bool
	Level             string
	// Dir holds the log file; empty means the working directory.
	Dir string
	// Console additionally writes human readable lines to stderr.
	Console bool
}

// Setup installs the global zerolog logger. With file logging disabled and no
// console, logs are discarded so the resident stays silent.
func Setup(opts Options) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if opts.EnableFileLogging {
		w, err := newRotatingWriter(filepath.Join(opts.Dir, logFileName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			writers = append(writers, w)
		}
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(path string) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSizeBytes {
		rotate(path)
	}
}

// rotate shifts path -> .1 -> .2 -> .3, discarding the oldest archive.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Sanitize flattens control characters and caps length so user text can be
// logged on one line.
func Sanitize(text string, maxLen int) string {
	if maxLen > 0 && len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			b.WriteString("\\n")
		case r == '\t':
			b.WriteString("\\t")
		case r < 32 || r == 127:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
