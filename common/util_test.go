package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNickname(t *testing.T) {
	assert := assert.New(t)

	// Acceptable names
	for _, name := range []string{
		"Alice", "ab", "dc_comics-fan 42", "  padded  ", "12345678901234567890",
	} {
		assert.Nilf(ValidateNickname(name), "expected '%s' to validate", name)
	}

	// Too short or empty after trimming
	for _, name := range []string{"", " ", "a", "  x  "} {
		assert.NotNilf(ValidateNickname(name), "expected '%s' to fail validation", name)
	}

	// Too long
	assert.NotNil(ValidateNickname("123456789012345678901"))

	// Disallowed characters
	for _, name := range []string{"bad!name", "héro", "tab\tname", "semi;colon"} {
		assert.NotNilf(ValidateNickname(name), "expected '%s' to fail validation", name)
	}
}
