package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorString_RoundTrip(t *testing.T) {
	v := []float32{0.25, -1, 0, 3.5}
	parsed, err := parseVector(vectorToString(v))
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestParseVector_Empty(t *testing.T) {
	parsed, err := parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseVector_Malformed(t *testing.T) {
	_, err := parseVector("0.1,0.2")
	assert.Error(t, err)

	_, err = parseVector("[0.1,zzz]")
	assert.Error(t, err)
}
