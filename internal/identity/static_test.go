package identity

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(zerolog.Nop(), map[string]string{"token-alice": "alice"})

	userID, ok := v.Verify(context.Background(), "token-alice")
	assert.True(t, ok)
	assert.Equal(t, "alice", userID)

	_, ok = v.Verify(context.Background(), "unknown")
	assert.False(t, ok)

	_, ok = v.Verify(context.Background(), "")
	assert.False(t, ok)
}
