package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNicknameRegistry(t *testing.T) {
	assert := assert.New(t)

	uut := newNicknameRegistry()

	// Case 0: empty registry
	assert.False(uut.isTaken("Alice"))
	assert.Equal(AnonymousNickname, uut.resolve("client-0"))
	_, ok := uut.assigned("client-0")
	assert.False(ok)
	assert.Empty(uut.allNames())

	// Case 1: assignment trims and resolves
	uut.assign("client-0", "  Alice ")
	assert.Equal("Alice", uut.resolve("client-0"))
	name, ok := uut.assigned("client-0")
	assert.True(ok)
	assert.Equal("Alice", name)

	// Case 2: uniqueness check is case-insensitive
	assert.True(uut.isTaken("Alice"))
	assert.True(uut.isTaken("alice"))
	assert.True(uut.isTaken("ALICE"))
	assert.True(uut.isTaken("  alice  "))
	assert.False(uut.isTaken("Bob"))

	// Case 3: names listed in sorted order
	uut.assign("client-1", "Charlie")
	uut.assign("client-2", "Bob")
	assert.Equal([]string{"Alice", "Bob", "Charlie"}, uut.allNames())

	// Case 4: revoke is idempotent
	uut.revoke("client-1")
	uut.revoke("client-1")
	assert.False(uut.isTaken("Charlie"))
	assert.Equal(AnonymousNickname, uut.resolve("client-1"))
	assert.Equal([]string{"Alice", "Bob"}, uut.allNames())
}
