package hub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientRegistryLifecycle(t *testing.T) {
	assert := assert.New(t)

	uut := newClientRegistry("ut")
	assert.Equal(0, uut.size())

	client0 := NewClient("client-0", 4)
	client1 := NewClient("client-1", 4)

	// Case 1: registration grows the live set
	assert.Nil(uut.register(client0))
	assert.Nil(uut.register(client1))
	assert.Equal(2, uut.size())

	// Case 2: double registration is rejected
	assert.NotNil(uut.register(client0))
	assert.Equal(2, uut.size())

	// Case 3: unregister shrinks the live set
	assert.Nil(uut.unregister(client0))
	assert.Equal(1, uut.size())

	// Case 4: unregister of an unknown client errors without changing the set
	assert.Equal(ErrClientNotFound, uut.unregister(client0))
	assert.Equal(1, uut.size())

	assert.Nil(uut.unregister(client1))
	assert.Equal(0, uut.size())
}

func TestClientRegistryBroadcast(t *testing.T) {
	assert := assert.New(t)

	uut := newClientRegistry("ut")

	clients := make([]*Client, 3)
	for itr := 0; itr < 3; itr++ {
		clients[itr] = NewClient(fmt.Sprintf("client-%d", itr), 4)
		assert.Nil(uut.register(clients[itr]))
	}

	// Every registered client receives the message in registration order
	uut.broadcast("hello")
	uut.broadcast("world")
	for _, client := range clients {
		assert.Equal("hello", <-client.Outbound())
		assert.Equal("world", <-client.Outbound())
	}
}

func TestClientRegistryBroadcastDeliveryFailure(t *testing.T) {
	assert := assert.New(t)

	uut := newClientRegistry("ut")

	// The stalled client has a single-slot queue which the first message fills
	stalled := NewClient("stalled", 1)
	healthy := NewClient("healthy", 4)
	assert.Nil(uut.register(stalled))
	assert.Nil(uut.register(healthy))

	uut.broadcast("msg 1")
	uut.broadcast("msg 2")

	// The stalled client is flagged for disconnect; the healthy one still
	// receives everything
	select {
	case <-stalled.Done():
		break
	default:
		assert.FailNow("stalled client was not flagged for disconnect")
	}
	assert.Equal("msg 1", <-healthy.Outbound())
	assert.Equal("msg 2", <-healthy.Outbound())

	// Failed clients stay in the set until the connection owner removes them
	assert.Equal(2, uut.size())
}
