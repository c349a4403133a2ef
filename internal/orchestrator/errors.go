package orchestrator

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when the conversation ran out of oracle budget.
// Its message is meant for the user.
var ErrRateLimited = errors.New("I'm getting too many requests right now. Please wait a moment and try again.")

// InputError is returned when the input guard rejects an utterance or a
// barcode. Error() is meant for the user.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("I couldn't use that input (%s). Please try again.", e.Reason)
}
