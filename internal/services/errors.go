package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks a source skipped because credentials are
	// missing or the source is disabled. Recorded as a warning.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceFetch marks a network or API failure while fetching a source.
	// The source's items are treated as empty and the run continues.
	ErrSourceFetch = errors.New("source fetch error")
	// ErrNormalization marks a single malformed raw item; the item is dropped
	// and the batch continues.
	ErrNormalization = errors.New("normalization error")
	// ErrSynthesis marks a failed LLM call; callers substitute fallback text.
	ErrSynthesis = errors.New("synthesis error")
	// ErrValidation marks invalid caller input.
	ErrValidation = errors.New("validation error")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsWarning reports whether the error degrades the run without counting as a
// source failure. Fetch errors force the run status to "error"; everything
// else in the taxonomy only degrades it.
func IsWarning(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrSynthesis) || errors.Is(err, ErrNormalization)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
