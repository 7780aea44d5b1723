package gui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"github.com/rs/zerolog/log"
)

const maxDropBytes = 1 << 20

// droppedText turns dropped items into entry text. Local files are inlined
// when they hold text; anything else is inserted as its URI. Items are
// separated by newlines.
func droppedText(uris []fyne.URI, read func(fyne.URI) (string, error)) string {
	parts := make([]string, 0, len(uris))
	for _, u := range uris {
		if u == nil {
			continue
		}
		if u.Scheme() == "file" && read != nil {
			text, err := read(u)
			if err == nil {
				parts = append(parts, text)
				continue
			}
			log.Warn().Err(err).Str("uri", u.String()).Msg("dropped file not inlined")
		}
		parts = append(parts, u.String())
	}
	return strings.Join(parts, "\n")
}

func readFileURI(u fyne.URI) (string, error) {
	f, err := os.Open(u.Path())
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDropBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u.Path(), err)
	}
	if len(data) > maxDropBytes {
		return "", fmt.Errorf("%s is larger than %d bytes", u.Name(), maxDropBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not text", u.Name())
	}
	return string(data), nil
}
