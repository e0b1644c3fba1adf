package resilience

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient_Nil(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(eris.New("upstream 503"), 503)
	assert.True(t, IsTransient(err))

	// Wrapped in another layer.
	wrapped := fmt.Errorf("calling model: %w", err)
	assert.True(t, IsTransient(wrapped))
}

func TestIsTransient_Syscall(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
	assert.True(t, IsTransient(fmt.Errorf("read: %w", syscall.ECONNRESET)))
}

func TestIsTransient_MessagePatterns(t *testing.T) {
	assert.True(t, IsTransient(eris.New("Get \"https://api\": TLS handshake timeout")))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
	assert.False(t, IsTransient(eris.New("invalid api key")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "transient", ClassifyError(NewTransientError(eris.New("x"), 503)))
	assert.Equal(t, "permanent", ClassifyError(eris.New("schema mismatch")))
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := eris.New("inner")
	te := NewTransientError(inner, 429)
	assert.Equal(t, inner, te.Unwrap())
	assert.Equal(t, "inner", te.Error())
	assert.Equal(t, 429, te.StatusCode)
}
