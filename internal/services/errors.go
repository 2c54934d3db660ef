package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Per-item markers (resolution, download, merge) are
// downgraded to report entries at the orchestrator boundary; environment and
// configuration markers abort the run before any work starts.
var (
	ErrResolution    = errors.New("resolution failure")
	ErrDownload      = errors.New("download failure")
	ErrMerge         = errors.New("merge failure")
	ErrEnvironment   = errors.New("environment failure")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrEnvironment
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err must abort the whole run rather than be recorded
// against a single recording.
func Fatal(err error) bool {
	return errors.Is(err, ErrEnvironment) || errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
