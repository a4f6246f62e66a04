package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeErrorIsMatchesByCode(t *testing.T) {
	err := ErrValidation.WrapMsg("content empty", "conn", "c-1")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrAuthorization))
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	detailed := ErrRecordNotFound.WithDetail("message m-1")

	assert.Equal(t, "message m-1", detailed.Detail)
	assert.Empty(t, ErrRecordNotFound.Detail)
	assert.Equal(t, ErrRecordNotFound.Code, detailed.Code)
}

func TestWithDetailAppends(t *testing.T) {
	detailed := ErrPersistence.WithDetail("insert").WithDetail("timeout")
	assert.Equal(t, "insert, timeout", detailed.Detail)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "1001 validation error", ErrValidation.Error())
	assert.Equal(t, "1001 validation error bad topic", ErrValidation.WithDetail("bad topic").Error())
}

func TestWrapMsgFormatsKeyValues(t *testing.T) {
	err := ErrPersistence.WrapMsg("insert failed", "topic", "channel-1")

	var ce CodeError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, PersistenceCode, ce.Code)
	assert.Contains(t, ce.Detail, "topic=channel-1")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil))
	assert.NoError(t, WrapMsg(nil, "whatever"))
}
