package surprise

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is the root of all configuration validation failures.
// Callers can match any rejected parameter with errors.Is(err, ErrInvalidConfig).
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrInvalidChannels reports a channels string that is empty or contains
// letters outside [SCIOFMG].
var ErrInvalidChannels = fmt.Errorf("%w: channels", ErrInvalidConfig)

// ErrInvalidUpdateFactor reports an update factor outside (0.001, 0.999).
var ErrInvalidUpdateFactor = fmt.Errorf("%w: updatefac", ErrInvalidConfig)

// ExtractionError reports that the feature extraction collaborator could not
// produce usable maps for the frame. Channel names the offending channel
// when the failure is attributable to one, and is ChannelNone when the
// extractor failed as a whole. The frame's belief update is skipped entirely
// when this is returned; engine state stays valid for the next frame.
type ExtractionError struct {
	Channel Channel
	Err     error
}

func (e *ExtractionError) Error() string {
	prefix := "feature extraction failed"
	if e.Channel != ChannelNone {
		prefix = fmt.Sprintf("feature extraction failed for channel %s", e.Channel)
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
