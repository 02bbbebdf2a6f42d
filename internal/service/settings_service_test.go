package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", maskToken(""))
	assert.Equal(t, "********", maskToken("short"))
	assert.Equal(t, "********", maskToken("12345678"))
	assert.Equal(t, "eyJh...XVCJ", maskToken("eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ"))
}
