package errors_test

import (
	"testing"

	stderrors "errors"

	"github.com/chris-alexander-pop/system-design-library/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatsCodeAndMessage(t *testing.T) {
	err := errors.New("FOO", "bad thing happened", nil)
	assert.Equal(t, "FOO", err.Code)
	assert.Contains(t, err.Error(), "bad thing happened")
}

func TestWrapPreservesCode(t *testing.T) {
	base := errors.New("FOO", "original", nil)
	wrapped := errors.Wrap(base, "context added")

	assert.Equal(t, "FOO", wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, base) || stderrors.As(wrapped, &base))
}

func TestWrapOfPlainErrorDefaultsToInternal(t *testing.T) {
	wrapped := errors.Wrap(stderrors.New("boom"), "context")
	require.NotNil(t, wrapped)
	assert.Equal(t, errors.CodeInternal, wrapped.Code)
}

func TestHasCode(t *testing.T) {
	err := errors.New(errors.CodeNotFound, "missing", nil)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.False(t, errors.HasCode(err, errors.CodeInternal))
}
