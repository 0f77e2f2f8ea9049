package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChangeRecord(t *testing.T) {
	assert := assert.New(t)

	// Case 1: a well formed create envelope
	raw := []byte(`{
		"payload": {
			"op": "c",
			"before": null,
			"after": {"id": 1, "name": "Superman"},
			"source": {"table": "super_heroes"}
		}
	}`)
	record, err := ParseChangeRecord(raw)
	assert.Nil(err)
	assert.Equal("c", record.Payload.Op)
	assert.Equal("super_heroes", record.Payload.Source.Table)
	assert.Nil(record.Payload.Before)
	assert.Equal("Superman", record.Payload.After["name"])

	// Case 2: malformed JSON
	_, err = ParseChangeRecord([]byte(`{"payload": {`))
	assert.NotNil(err)

	// Case 3: unrelated JSON decodes to an empty envelope
	record, err = ParseChangeRecord([]byte(`{"something": "else"}`))
	assert.Nil(err)
	assert.Equal("", record.Payload.Op)
}

func TestChangeRecordEntityLabel(t *testing.T) {
	assert := assert.New(t)

	label := func(table string) string {
		return ChangeRecord{
			Payload: ChangePayload{Source: ChangeSource{Table: table}},
		}.EntityLabel()
	}

	assert.Equal("SuperHeroes", label("super_heroes"))
	assert.Equal("Orders", label("orders"))
	assert.Equal("OrderLineItems", label("order_line_items"))
	assert.Equal("Record", label(""))
	assert.Equal("Record", label("   "))
	assert.Equal("Orders", label("_orders_"))
	// Multi-byte leading runes uppercase cleanly
	assert.Equal("Héros", label("héros"))
	assert.Equal("SuperHéros", label("super_héros"))
}

func TestChangeRecordBroadcastMessage(t *testing.T) {
	assert := assert.New(t)

	build := func(op string, before, after map[string]interface{}) ChangeRecord {
		return ChangeRecord{Payload: ChangePayload{
			Op:     op,
			Before: before,
			After:  after,
			Source: ChangeSource{Table: "super_heroes"},
		}}
	}

	// Create and update use the after state
	msg, ok := build("c", nil, map[string]interface{}{"id": 1}).BroadcastMessage()
	assert.True(ok)
	assert.Equal(`SuperHeroes [Created]: {"id":1}`, msg)
	msg, ok = build("u", nil, map[string]interface{}{"id": 1}).BroadcastMessage()
	assert.True(ok)
	assert.Equal(`SuperHeroes [Updated]: {"id":1}`, msg)

	// Delete uses the before state
	msg, ok = build("d", map[string]interface{}{"id": 2}, nil).BroadcastMessage()
	assert.True(ok)
	assert.Equal(`SuperHeroes [Deleted]: {"id":2}`, msg)

	// Initial table scan rows surface as snapshots
	msg, ok = build("r", nil, map[string]interface{}{"id": 3}).BroadcastMessage()
	assert.True(ok)
	assert.Equal(`📸 SuperHeroes [Snapshot]: {"id":3}`, msg)

	// Missing row state renders as an empty object
	msg, ok = build("c", nil, nil).BroadcastMessage()
	assert.True(ok)
	assert.Equal("SuperHeroes [Created]: {}", msg)

	// Unknown operation codes produce no broadcast
	_, ok = build("x", nil, nil).BroadcastMessage()
	assert.False(ok)
	_, ok = build("", nil, nil).BroadcastMessage()
	assert.False(ok)
}
