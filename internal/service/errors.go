package service

import (
	"context"
	"errors"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
)

func isUnavailable(err error) bool {
	return errors.Is(err, embedding.ErrProviderUnavailable) || errors.Is(err, appErrors.ErrEmbeddingUnavailable)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, appErrors.ErrTimeout)
}

// translateError maps core failures onto API error codes. Already typed errors pass
// through untouched.
func translateError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case isUnavailable(err):
		return appErrors.Wrap(err, appErrors.ErrEmbeddingUnavailable.Code, appErrors.ErrEmbeddingUnavailable.Status, appErrors.ErrEmbeddingUnavailable.Message)
	case isTimeout(err):
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
