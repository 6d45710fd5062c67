package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"smartbin-backend/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageFallsBackToCodeTable(t *testing.T) {
	err := errors.New(errors.ErrNotFound)
	assert.Equal(t, "Resource not found", err.Error())
	assert.Equal(t, errors.ErrNotFound, err.Code())
}

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := errors.Wrap(errors.ErrConnection, cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "Store unreachable: dial tcp: refused", err.Error())
	assert.Equal(t, errors.ErrConnection, errors.CodeOf(fmt.Errorf("relay: %w", err)))
}

func TestHasCodeAndIs(t *testing.T) {
	err := fmt.Errorf("register: %w", errors.Newf(errors.ErrIntegrityViolation, "bin %s exists", "BIN-001"))

	assert.True(t, errors.HasCode(err, errors.ErrIntegrityViolation))
	assert.False(t, errors.HasCode(err, errors.ErrNotFound))
	assert.True(t, errors.Is(err, errors.New(errors.ErrIntegrityViolation)))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(stderrors.New("plain")))
}

func TestWithDataFormatsData(t *testing.T) {
	err := errors.New(errors.ErrPartialBatch).WithData([]string{"BIN-002"})
	assert.Equal(t, "One or more items in the batch failed: [BIN-002]", err.Error())
	assert.Equal(t, []string{"BIN-002"}, err.GetData())
}
