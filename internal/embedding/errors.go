package embedding

import "fmt"

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProviderUnavailable, fmt.Sprintf(format, args...))
}

func wrapUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, op, err)
}
