package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientQueue(t *testing.T) {
	assert := assert.New(t)

	uut := NewClient("client-0", 2)
	assert.Equal("client-0", uut.ID())

	// Case 1: enqueue within capacity
	assert.Nil(uut.queue("one"))
	assert.Nil(uut.queue("two"))
	assert.Equal(ErrSendBufferFull, uut.queue("three"))
	assert.Equal("one", <-uut.Outbound())
	assert.Equal("two", <-uut.Outbound())

	// Case 2: Fail is idempotent and stops further enqueues
	uut.Fail()
	uut.Fail()
	select {
	case <-uut.Done():
		break
	default:
		assert.FailNow("done channel not closed after Fail")
	}
	assert.Equal(ErrClientGone, uut.queue("four"))
}
