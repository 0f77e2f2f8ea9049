package hub

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// drain empty a client's outbound queue, returning the messages received
func drain(client *Client) []string {
	var messages []string
	for {
		select {
		case msg := <-client.Outbound():
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}

func TestBroadcastHubRegistration(t *testing.T) {
	assert := assert.New(t)

	ctxt, cancel := context.WithCancel(context.Background())
	defer cancel()
	uut, err := GetBroadcastHub("ut")
	assert.Nil(err)

	// Case 0: fresh hub
	snapshot := uut.Snapshot()
	assert.Equal(0, snapshot.ConnectedUsers)
	assert.Equal(int64(0), snapshot.TotalMessages)
	assert.Empty(snapshot.ActiveNicknames)
	assert.Equal(float64(0), snapshot.EventsPerSecond)
	assert.Equal(float64(0), snapshot.BytesPerSecond)

	// Case 1: register with a nickname
	alice := NewClient("client-alice", 8)
	assert.Nil(uut.Register(ctxt, alice, "Alice"))
	snapshot = uut.Snapshot()
	assert.Equal(1, snapshot.ConnectedUsers)
	assert.Equal([]string{"Alice"}, snapshot.ActiveNicknames)
	assert.Equal("Alice", uut.ResolveNickname(alice))
	// The join announcement went through the broadcast path
	assert.Equal(int64(1), snapshot.TotalMessages)
	assert.Equal([]string{"Client Alice joined the chat"}, drain(alice))

	// Case 2: anonymous registration announces by client ID
	anon := NewClient("client-anon", 8)
	assert.Nil(uut.Register(ctxt, anon, ""))
	assert.Equal(AnonymousNickname, uut.ResolveNickname(anon))
	assert.Equal(2, uut.ClientCount())
	snapshot = uut.Snapshot()
	assert.Equal([]string{"Alice"}, snapshot.ActiveNicknames)
	assert.Equal([]string{"Client client-anon joined the chat"}, drain(anon))
	drain(alice)

	// Case 3: duplicate nickname differing only in case is rejected
	bob := NewClient("client-bob", 8)
	assert.Nil(uut.Register(ctxt, bob, "Bob"))
	drain(bob)
	imposter := NewClient("client-imposter", 8)
	assert.Equal(ErrDuplicateNickname, uut.Register(ctxt, imposter, "bob"))
	assert.Equal(3, uut.ClientCount())
	// The rejected client received nothing
	assert.Empty(drain(imposter))

	// Case 4: unregister announces the leave using the prior nickname
	assert.Nil(uut.Unregister(ctxt, bob))
	assert.Equal(2, uut.ClientCount())
	messages := drain(alice)
	assert.Contains(messages, "Client Bob left the chat")
	snapshot = uut.Snapshot()
	assert.Equal([]string{"Alice"}, snapshot.ActiveNicknames)

	// Case 5: second unregister errors without counter side effects
	before := uut.Snapshot().TotalMessages
	assert.Equal(ErrClientNotFound, uut.Unregister(ctxt, bob))
	assert.Equal(before, uut.Snapshot().TotalMessages)
	assert.Equal(2, uut.ClientCount())
}

func TestBroadcastHubMetrics(t *testing.T) {
	assert := assert.New(t)

	ctxt, cancel := context.WithCancel(context.Background())
	defer cancel()
	uut, err := GetBroadcastHub("ut")
	assert.Nil(err)

	alice := NewClient("client-alice", 32)
	assert.Nil(uut.Register(ctxt, alice, "Alice"))

	// One CDC create on top of the join announcement
	assert.Nil(uut.Broadcast(ctxt, `SuperHero [Created]: {"id":1}`))
	snapshot := uut.Snapshot()
	assert.Equal(int64(2), snapshot.TotalMessages)
	assert.Equal(int64(1), snapshot.CDCEvents.Create)
	assert.Equal(int64(1), snapshot.CDCEvents24h.Create)
	assert.Equal(2, snapshot.MessagesPerMinute)

	// Updates and deletes tally independently
	assert.Nil(uut.Broadcast(ctxt, `SuperHero [Updated]: {"id":1}`))
	assert.Nil(uut.Broadcast(ctxt, `SuperHero [Deleted]: {"id":1}`))
	assert.Nil(uut.Broadcast(ctxt, `📸 SuperHero [Snapshot]: {"id":2}`))
	snapshot = uut.Snapshot()
	assert.Equal(int64(1), snapshot.CDCEvents.Update)
	assert.Equal(int64(1), snapshot.CDCEvents.Delete)
	assert.Equal(int64(1), snapshot.CDCEvents.Snapshot)
	assert.Equal(int64(5), snapshot.TotalMessages)

	// Chat messages count toward totals but not CDC tallies
	assert.Nil(uut.Broadcast(ctxt, "Alice: hello"))
	snapshot = uut.Snapshot()
	assert.Equal(int64(6), snapshot.TotalMessages)
	assert.Equal(int64(1), snapshot.CDCEvents.Create)
	assert.Equal(
		EventTally{Create: 1, Update: 1, Delete: 1, Snapshot: 1}, snapshot.CDCEvents24h,
	)

	// Per-second rates reflect the last minute of activity. Four CDC events
	// over the 60 second window
	assert.Equal(0.07, snapshot.EventsPerSecond)
	assert.True(snapshot.BytesPerSecond > 0)

	// Totals are monotonic even as clients leave
	assert.Nil(uut.Unregister(ctxt, alice))
	final := uut.Snapshot()
	assert.Equal(0, final.ConnectedUsers)
	assert.True(final.TotalMessages > snapshot.TotalMessages)
	assert.Equal(snapshot.CDCEvents, final.CDCEvents)
}

func TestBroadcastHubConcurrentNicknameClaim(t *testing.T) {
	assert := assert.New(t)

	ctxt, cancel := context.WithCancel(context.Background())
	defer cancel()
	uut, err := GetBroadcastHub("ut")
	assert.Nil(err)

	// Case variants of one name race to register; exactly one may win
	variants := []string{"Bob", "bob", "BOB", "bOb"}
	results := make(chan error, len(variants))
	start := make(chan struct{})
	wg := sync.WaitGroup{}
	for idx, name := range variants {
		wg.Add(1)
		go func(clientID, nickname string) {
			defer wg.Done()
			<-start
			results <- uut.Register(ctxt, NewClient(clientID, 16), nickname)
		}(fmt.Sprintf("client-%d", idx), name)
	}
	close(start)
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(ErrDuplicateNickname, err)
		}
	}
	assert.Equal(1, succeeded)
	assert.Equal(1, uut.ClientCount())
	assert.Len(uut.Snapshot().ActiveNicknames, 1)
}

func TestBroadcastHubConcurrentBroadcastAndSnapshot(t *testing.T) {
	assert := assert.New(t)

	ctxt, cancel := context.WithCancel(context.Background())
	defer cancel()
	uut, err := GetBroadcastHub("ut")
	assert.Nil(err)

	viewer := NewClient("client-viewer", 256)
	assert.Nil(uut.Register(ctxt, viewer, "Viewer"))

	const writers = 4
	const perWriter = 50
	wg := sync.WaitGroup{}
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for itr := 0; itr < perWriter; itr++ {
				msg := fmt.Sprintf(`SuperHero [Created]: {"id":%d}`, w*perWriter+itr)
				assert.Nil(uut.Broadcast(ctxt, msg))
			}
		}(w)
	}
	// Snapshots run against the in-flight broadcasts. Windowed counts never
	// exceed the cumulative totals, and per-kind breakdowns stay within the
	// running tallies.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for itr := 0; itr < 100; itr++ {
			snapshot := uut.Snapshot()
			assert.True(int64(snapshot.MessagesPerMinute) <= snapshot.TotalMessages)
			assert.True(snapshot.CDCEvents24h.Create <= snapshot.CDCEvents.Create)
			assert.True(snapshot.CDCEvents.Create <= snapshot.TotalMessages)
		}
	}()
	wg.Wait()

	final := uut.Snapshot()
	// One join announcement plus every CDC broadcast
	assert.Equal(int64(writers*perWriter+1), final.TotalMessages)
	assert.Equal(int64(writers*perWriter), final.CDCEvents.Create)
	assert.Equal(1, final.ConnectedUsers)
}

func TestBroadcastHubTopicCount(t *testing.T) {
	assert := assert.New(t)

	uut, err := GetBroadcastHub("ut")
	assert.Nil(err)

	assert.Equal(0, uut.Snapshot().TopicCount)
	uut.RecordTopicCount(3)
	assert.Equal(3, uut.Snapshot().TopicCount)
	// The cached value persists until the next successful poll
	uut.RecordTopicCount(3)
	assert.Equal(3, uut.Snapshot().TopicCount)
}
