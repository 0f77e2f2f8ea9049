package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Debezium operation codes carried in the change record envelope
const (
	opCreate = "c"
	opUpdate = "u"
	opDelete = "d"
	// opRead marks a pre-existing row emitted during the initial full table
	// scan, surfaced to viewers as a snapshot event
	opRead = "r"
)

// defaultEntityLabel used when a change record does not name its source table
const defaultEntityLabel = "Record"

// ChangeSource identifies where a change record originated
type ChangeSource struct {
	// Table is the source table name
	Table string `json:"table"`
}

// ChangePayload the inner payload of a Debezium-style change record
type ChangePayload struct {
	// Op is the operation code: c, u, d, or r
	Op string `json:"op"`
	// Before is the row state prior to the change, present for deletes
	Before map[string]interface{} `json:"before"`
	// After is the row state following the change
	After map[string]interface{} `json:"after"`
	// Source identifies the origin of the change
	Source ChangeSource `json:"source"`
}

// ChangeRecord a Debezium-style CDC envelope read from the upstream feed
type ChangeRecord struct {
	// Payload is the change payload
	Payload ChangePayload `json:"payload"`
}

// ParseChangeRecord decode one raw feed message
func ParseChangeRecord(data []byte) (ChangeRecord, error) {
	var record ChangeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ChangeRecord{}, err
	}
	return record, nil
}

// EntityLabel human readable label for the changed entity, derived from the
// source table name
func (r ChangeRecord) EntityLabel() string {
	table := strings.TrimSpace(r.Payload.Source.Table)
	if table == "" {
		return defaultEntityLabel
	}
	parts := strings.Split(table, "_")
	for idx, part := range parts {
		if part == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(part)
		parts[idx] = string(unicode.ToUpper(first)) + part[size:]
	}
	return strings.Join(parts, "")
}

// BroadcastMessage format the record as a human readable broadcast string.
//
// Returns false for unknown operation codes; those produce no broadcast.
func (r ChangeRecord) BroadcastMessage() (string, bool) {
	entity := r.EntityLabel()
	switch r.Payload.Op {
	case opCreate:
		return fmt.Sprintf("%s [Created]: %s", entity, formatChanges(r.Payload.After)), true
	case opUpdate:
		return fmt.Sprintf("%s [Updated]: %s", entity, formatChanges(r.Payload.After)), true
	case opDelete:
		return fmt.Sprintf("%s [Deleted]: %s", entity, formatChanges(r.Payload.Before)), true
	case opRead:
		return fmt.Sprintf("📸 %s [Snapshot]: %s", entity, formatChanges(r.Payload.After)), true
	}
	return "", false
}

// formatChanges render the row state for display
func formatChanges(changes map[string]interface{}) string {
	if len(changes) == 0 {
		return "{}"
	}
	serialized, err := json.Marshal(changes)
	if err != nil {
		return "{}"
	}
	return string(serialized)
}
