package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID(t *testing.T) {
	id := NewUUID().Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSnowflake(t *testing.T) {
	sf, err := NewSnowflake(1)
	require.NoError(t, err)

	a, b := sf.Generate(), sf.Generate()
	assert.Positive(t, a)
	assert.Greater(t, b, a)

	_, err = NewSnowflake(5000)
	assert.Error(t, err)
}

func TestRandomToken(t *testing.T) {
	g := NewRandomToken()
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
