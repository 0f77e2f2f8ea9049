package hub

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/hubcast/hubcast/common"
)

// ErrDuplicateNickname returned when a registration requests a nickname
// already held by a connected client
var ErrDuplicateNickname = fmt.Errorf("nickname already in use")

// ErrClientNotFound returned when unregister targets a client which is not
// registered. Safe to swallow on the disconnect path; unregister is
// idempotent.
var ErrClientNotFound = fmt.Errorf("client not registered")

// Sliding window capacities. The 24 hour breakdown needs more headroom than
// the 60 second rate windows.
const (
	rawMessageWindowLen = 1000
	cdcKindWindowLen    = 10000
	cdcRateWindowLen    = 1000
	byteRateWindowLen   = 1000
)

// BroadcastHub is the shared connection and broadcast coordinator.
//
// One instance exists for the lifetime of the process. It owns the client
// registry, the nickname registry, the metric counters, and the sliding
// window recorders, and serializes all mutations against each other.
type BroadcastHub interface {
	// Register add a client to the live set, optionally with a display
	// nickname, and announce the join to all connected clients. The nickname
	// must already be format validated; the hub owns only the
	// case-insensitive uniqueness check.
	Register(ctxt context.Context, client *Client, nickname string) error
	// Unregister remove a client from the live set and announce the leave
	// using the nickname resolved before removal. Returns ErrClientNotFound
	// without side effects when the client is not registered.
	Unregister(ctxt context.Context, client *Client) error
	// Broadcast classify, record, and deliver text to every connected client
	Broadcast(ctxt context.Context, message string) error
	// ResolveNickname the client's display name, or the anonymous sentinel
	ResolveNickname(client *Client) string
	// ClientCount current connected client count
	ClientCount() int
	// RecordTopicCount cache the upstream topic count from the latest
	// successful discovery poll
	RecordTopicCount(count int)
	// Snapshot compute a fresh point-in-time metrics snapshot
	Snapshot() MetricsSnapshot
}

// broadcastHubImpl implements BroadcastHub
type broadcastHubImpl struct {
	common.Component
	lock          sync.RWMutex
	clients       *clientRegistry
	nicknames     *nicknameRegistry
	startTime     time.Time
	totalMessages int64
	kindTotals    EventTally
	msgWindow     *SlidingWindow
	kindWindow    *SlidingWindow
	rateWindow    *SlidingWindow
	byteWindow    *SlidingWindow
	topicCount    int
}

// GetBroadcastHub define the broadcast hub. Call once at process start; the
// instance is passed by handle to the feed consumer, the WebSocket gateway,
// and the metrics API.
func GetBroadcastHub(instance string) (BroadcastHub, error) {
	logTags := log.Fields{
		"module": "hub", "component": "broadcast-hub", "instance": instance,
	}
	return &broadcastHubImpl{
		Component:  common.Component{LogTags: logTags},
		clients:    newClientRegistry(instance),
		nicknames:  newNicknameRegistry(),
		startTime:  time.Now(),
		msgWindow:  NewSlidingWindow(rawMessageWindowLen),
		kindWindow: NewSlidingWindow(cdcKindWindowLen),
		rateWindow: NewSlidingWindow(cdcRateWindowLen),
		byteWindow: NewSlidingWindow(byteRateWindowLen),
	}, nil
}

// Register add a client to the live set
func (h *broadcastHubImpl) Register(
	ctxt context.Context, client *Client, nickname string,
) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if nickname != "" && h.nicknames.isTaken(nickname) {
		log.WithFields(h.LogTags).Infof(
			"Rejecting client %s. Nickname '%s' already in use", client.ID(), nickname,
		)
		return ErrDuplicateNickname
	}
	if err := h.clients.register(client); err != nil {
		log.WithError(err).WithFields(h.LogTags).Errorf(
			"Unable to register client %s", client.ID(),
		)
		return err
	}
	displayName := client.ID()
	if nickname != "" {
		h.nicknames.assign(client.ID(), nickname)
		displayName = h.nicknames.resolve(client.ID())
	}
	log.WithFields(h.LogTags).Infof("Client %s connected as '%s'", client.ID(), displayName)
	h.broadcastLocked(fmt.Sprintf("Client %s joined the chat", displayName))
	return nil
}

// Unregister remove a client from the live set
func (h *broadcastHubImpl) Unregister(ctxt context.Context, client *Client) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	// Resolve the display name before removal so the leave announcement
	// never reads a dangling entry
	displayName := client.ID()
	if name, ok := h.nicknames.assigned(client.ID()); ok {
		displayName = name
	}
	if err := h.clients.unregister(client); err != nil {
		return err
	}
	h.nicknames.revoke(client.ID())
	log.WithFields(h.LogTags).Infof("Client %s disconnected", client.ID())
	h.broadcastLocked(fmt.Sprintf("Client %s left the chat", displayName))
	return nil
}

// Broadcast deliver text to every connected client
func (h *broadcastHubImpl) Broadcast(ctxt context.Context, message string) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.broadcastLocked(message)
	return nil
}

// broadcastLocked the single broadcast path. Caller must hold the write
// lock. Metrics recording happens before delivery so a racing snapshot
// always observes a consistent pre-or-post state.
func (h *broadcastHubImpl) broadcastLocked(message string) {
	now := time.Now()
	kind := ClassifyMessage(message)
	h.totalMessages++
	h.kindTotals.increment(kind)
	h.msgWindow.Record(WindowEntry{At: now})
	h.byteWindow.Record(WindowEntry{At: now, Size: len(message)})
	if kind != KindNone {
		h.kindWindow.Record(WindowEntry{At: now, Kind: kind})
		h.rateWindow.Record(WindowEntry{At: now})
	}
	h.clients.broadcast(message)
}

// ResolveNickname the client's display name
func (h *broadcastHubImpl) ResolveNickname(client *Client) string {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.nicknames.resolve(client.ID())
}

// ClientCount current connected client count
func (h *broadcastHubImpl) ClientCount() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.clients.size()
}

// RecordTopicCount cache the latest known upstream topic count
func (h *broadcastHubImpl) RecordTopicCount(count int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.topicCount = count
}

// Snapshot compute a fresh metrics snapshot
func (h *broadcastHubImpl) Snapshot() MetricsSnapshot {
	h.lock.RLock()
	defer h.lock.RUnlock()
	now := time.Now()
	minuteCutoff := now.Add(-time.Minute)
	dayCutoff := now.Add(-24 * time.Hour)
	countKind := func(kind EventKind) int64 {
		return int64(h.kindWindow.CountSinceMatching(dayCutoff, func(entry WindowEntry) bool {
			return entry.Kind == kind
		}))
	}
	last24h := EventTally{
		Create:   countKind(KindCreate),
		Update:   countKind(KindUpdate),
		Delete:   countKind(KindDelete),
		Snapshot: countKind(KindSnapshot),
	}
	return MetricsSnapshot{
		ConnectedUsers:    h.clients.size(),
		MessagesPerMinute: h.msgWindow.CountSince(minuteCutoff),
		TotalMessages:     h.totalMessages,
		CDCEvents:         h.kindTotals,
		CDCEvents24h:      last24h,
		UptimeSec:         roundRate(now.Sub(h.startTime).Seconds()),
		ActiveNicknames:   h.nicknames.allNames(),
		TopicCount:        h.topicCount,
		EventsPerSecond:   roundRate(float64(h.rateWindow.CountSince(minuteCutoff)) / 60.0),
		BytesPerSecond:    roundRate(float64(h.byteWindow.SumSizeSince(minuteCutoff)) / 60.0),
	}
}

// roundRate round to two decimal places
func roundRate(value float64) float64 {
	return math.Round(value*100) / 100
}
