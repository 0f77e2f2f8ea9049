package hub

import "strings"

// EventKind the CDC operation class of a broadcast message
type EventKind string

// CDC event kinds
const (
	KindCreate   EventKind = "create"
	KindUpdate   EventKind = "update"
	KindDelete   EventKind = "delete"
	KindSnapshot EventKind = "snapshot"
	// KindNone marks a message carrying no CDC marker; chat and
	// join / leave announcements classify as this
	KindNone EventKind = "none"
)

// classifierMarkers lists the recognized markers in precedence order. The
// first matching kind wins so a message is never double counted. Both the
// bracketed tag form and the bare word are accepted to tolerate variation
// in upstream formatting. Matching is case sensitive.
var classifierMarkers = []struct {
	kind    EventKind
	markers []string
}{
	{kind: KindCreate, markers: []string{"[Created]", "Created"}},
	{kind: KindUpdate, markers: []string{"[Updated]", "Updated"}},
	{kind: KindDelete, markers: []string{"[Deleted]", "Deleted"}},
	{kind: KindSnapshot, markers: []string{"[Snapshot]", "Snapshot"}},
}

// ClassifyMessage determine the CDC event kind of a formatted broadcast
// message for metrics purposes
func ClassifyMessage(message string) EventKind {
	for _, candidate := range classifierMarkers {
		for _, marker := range candidate.markers {
			if strings.Contains(message, marker) {
				return candidate.kind
			}
		}
	}
	return KindNone
}
