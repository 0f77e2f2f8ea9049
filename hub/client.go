package hub

import (
	"fmt"
	"sync"
)

// ErrSendBufferFull returned when a client's outbound queue cannot accept
// another message
var ErrSendBufferFull = fmt.Errorf("client send buffer full")

// ErrClientGone returned when delivery is attempted against a client already
// flagged for disconnect
var ErrClientGone = fmt.Errorf("client flagged for disconnect")

// Client is the hub side handle for one connected viewer.
//
// The transport layer owns the actual connection; the hub only queues
// outbound text into the bounded send queue. The queue channel is never
// closed so concurrent broadcasters cannot panic; Fail is the idempotent
// signal that the client should be torn down.
type Client struct {
	id       string
	send     chan string
	done     chan struct{}
	failOnce sync.Once
}

// NewClient define a client handle with a bounded send queue
func NewClient(id string, sendQueueLen int) *Client {
	if sendQueueLen < 1 {
		sendQueueLen = 1
	}
	return &Client{
		id:   id,
		send: make(chan string, sendQueueLen),
		done: make(chan struct{}),
	}
}

// ID the stable identifier assigned by the transport layer
func (c *Client) ID() string {
	return c.id
}

// Outbound the queue of broadcast text awaiting transmission to this viewer
func (c *Client) Outbound() <-chan string {
	return c.send
}

// Done closed once the client is flagged for disconnect
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Fail flag the client for disconnect. Safe to call from multiple paths;
// only the first call has effect.
func (c *Client) Fail() {
	c.failOnce.Do(func() {
		close(c.done)
	})
}

// queue best-effort enqueue of one outbound message
func (c *Client) queue(message string) error {
	select {
	case <-c.done:
		return ErrClientGone
	default:
	}
	select {
	case c.send <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}
