package notification

import (
	"github.com/rs/zerolog/log"
)

// ShowBlockingError reports a fatal startup problem to the user and returns
// once it has been acknowledged (immediately where no dialog is available).
func ShowBlockingError(title, message string) {
	log.Error().Str("title", title).Str("message", message).Msg("blocking error")
	if err := showBlocking(title, message); err != nil {
		log.Error().Err(err).Msg("failed to show error dialog")
	}
}
