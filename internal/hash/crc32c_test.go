package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value of the Castagnoli polynomial.
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))

	assert.True(t, Verify([]byte("123456789"), 0xe3069283))
	assert.False(t, Verify([]byte("123456780"), 0xe3069283))
}
