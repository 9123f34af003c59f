package random

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringUsesAlphabet(t *testing.T) {
	r := New()
	const alphabet = "ABC"
	s := r.String(32, alphabet)
	assert.Len(t, s, 32)
	for _, c := range s {
		assert.True(t, strings.ContainsRune(alphabet, c))
	}
	assert.Empty(t, r.String(0, alphabet))
	assert.Empty(t, r.String(4, ""))
}

func TestIntnBounds(t *testing.T) {
	r := New()
	for i := 0; i < 100; i++ {
		n := r.Intn(6)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 6)
	}
	assert.Equal(t, 0, r.Intn(0))
}

func TestUUID(t *testing.T) {
	r := New()
	a, b := r.UUID(), r.UUID()
	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
