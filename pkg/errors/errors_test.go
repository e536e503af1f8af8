package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiErrorJoinsAllErrors(t *testing.T) {
	var m MultiError
	m.Add(Wrap(ErrOrderRejected, "tp"))
	m.Add(Wrap(ErrRateLimitExceeded, "sl"))

	err := m.ToError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tp: order rejected by exchange")
	assert.Contains(t, err.Error(), "sl: rate limit exceeded")
}

func TestMultiErrorSingle(t *testing.T) {
	var m MultiError
	m.Add(ErrNotFound)

	require.True(t, m.HasErrors())
	assert.Equal(t, ErrNotFound.Error(), m.Error())
}

func TestMultiErrorIgnoresNil(t *testing.T) {
	var m MultiError
	m.Add(nil)

	assert.False(t, m.HasErrors())
	assert.NoError(t, m.ToError())
}
