package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks failures reported by a wrapped binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks bad user input caught before any invocation.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration, including missing binaries.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing files or resources.
	ErrNotFound = errors.New("not found")
	// ErrBusy marks a second job submitted while one is already running.
	ErrBusy = errors.New("another job is already running")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
