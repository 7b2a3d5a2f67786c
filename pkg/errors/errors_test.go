package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("load run: %w", Clone(ErrNotFound, "match run not found"))
	got := FromError(wrapped)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, "match run not found", got.Message)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, "internal server error: boom", plain.Error())
}

func TestIsMatchesCode(t *testing.T) {
	err := Wrap(errors.New("dial tcp"), ErrEmbeddingUnavailable.Code, ErrEmbeddingUnavailable.Status, "embedding down")
	assert.True(t, errors.Is(err, ErrEmbeddingUnavailable))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(Clone(ErrCacheMiss, ""), ErrCacheMiss))
}
