package hub

// EventTally per-kind CDC event counts
type EventTally struct {
	// Create number of create events
	Create int64 `json:"create"`
	// Update number of update events
	Update int64 `json:"update"`
	// Delete number of delete events
	Delete int64 `json:"delete"`
	// Snapshot number of initial table scan snapshot events
	Snapshot int64 `json:"snapshot"`
}

// increment bump the count for one kind. KindNone is not tallied.
func (t *EventTally) increment(kind EventKind) {
	switch kind {
	case KindCreate:
		t.Create++
	case KindUpdate:
		t.Update++
	case KindDelete:
		t.Delete++
	case KindSnapshot:
		t.Snapshot++
	}
}

// MetricsSnapshot point-in-time view of hub operational metrics.
//
// Computed fresh on every query; never cached. The topic count is the one
// exception: it reflects the last successful upstream discovery poll.
type MetricsSnapshot struct {
	// ConnectedUsers current connected viewer count
	ConnectedUsers int `json:"connected_users"`
	// MessagesPerMinute broadcasts observed in the trailing 60 seconds
	MessagesPerMinute int `json:"messages_per_minute"`
	// TotalMessages broadcasts ever made, join / leave chatter included
	TotalMessages int64 `json:"total_messages"`
	// CDCEvents cumulative per-kind CDC event counts
	CDCEvents EventTally `json:"cdc_events"`
	// CDCEvents24h per-kind CDC event counts over the trailing 24 hours
	CDCEvents24h EventTally `json:"cdc_events_24h"`
	// UptimeSec seconds since hub start
	UptimeSec float64 `json:"uptime_sec"`
	// ActiveNicknames display names of currently connected viewers
	ActiveNicknames []string `json:"active_nicknames"`
	// TopicCount upstream subjects seen by the last successful discovery poll
	TopicCount int `json:"topic_count"`
	// EventsPerSecond CDC events per second over the trailing 60 seconds
	EventsPerSecond float64 `json:"events_per_second"`
	// BytesPerSecond broadcast bytes per second over the trailing 60 seconds
	BytesPerSecond float64 `json:"bytes_per_second"`
}
