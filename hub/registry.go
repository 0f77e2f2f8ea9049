package hub

import (
	"fmt"

	"github.com/apex/log"
	"github.com/hubcast/hubcast/common"
)

// clientRegistry tracks the live set of connected clients in insertion
// order. Not safe for concurrent use on its own; the owning hub serializes
// access.
type clientRegistry struct {
	common.Component
	ordered []*Client
	byID    map[string]*Client
}

func newClientRegistry(instance string) *clientRegistry {
	logTags := log.Fields{
		"module": "hub", "component": "client-registry", "instance": instance,
	}
	return &clientRegistry{
		Component: common.Component{LogTags: logTags},
		ordered:   make([]*Client, 0, 16),
		byID:      make(map[string]*Client),
	}
}

// register add a client to the live set
func (r *clientRegistry) register(client *Client) error {
	if _, exist := r.byID[client.ID()]; exist {
		return fmt.Errorf("client %s already registered", client.ID())
	}
	r.byID[client.ID()] = client
	r.ordered = append(r.ordered, client)
	return nil
}

// unregister remove a client from the live set
func (r *clientRegistry) unregister(client *Client) error {
	if _, exist := r.byID[client.ID()]; !exist {
		return ErrClientNotFound
	}
	delete(r.byID, client.ID())
	for idx, entry := range r.ordered {
		if entry.ID() == client.ID() {
			r.ordered = append(r.ordered[:idx], r.ordered[idx+1:]...)
			break
		}
	}
	return nil
}

// broadcast queue text for every registered client, in registration order.
//
// Delivery to each client is attempted independently. A client which cannot
// accept the message is flagged for disconnect; the surrounding connection
// lifecycle performs the actual removal.
func (r *clientRegistry) broadcast(message string) {
	for _, client := range r.ordered {
		if err := client.queue(message); err != nil {
			log.WithError(err).WithFields(r.LogTags).Errorf(
				"Failed to deliver to client %s", client.ID(),
			)
			client.Fail()
		}
	}
}

// size current connected client count
func (r *clientRegistry) size() int {
	return len(r.ordered)
}
