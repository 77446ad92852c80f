// internal/database/neo4j_test.go
package database

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
)

func TestStringProp(t *testing.T) {
	props := map[string]any{"name": "sunset", "count": int64(3)}

	assert.Equal(t, "sunset", StringProp(props, "name"))
	assert.Equal(t, "", StringProp(props, "count"))
	assert.Equal(t, "", StringProp(props, "missing"))
}

func TestInt64Prop(t *testing.T) {
	props := map[string]any{
		"a": int64(7),
		"b": 8,
		"c": 9.0,
		"d": "ten",
	}

	assert.Equal(t, int64(7), Int64Prop(props, "a"))
	assert.Equal(t, int64(8), Int64Prop(props, "b"))
	assert.Equal(t, int64(9), Int64Prop(props, "c"))
	assert.Equal(t, int64(0), Int64Prop(props, "d"))
	assert.Equal(t, int64(0), Int64Prop(props, "missing"))
}

func TestBoolProp(t *testing.T) {
	props := map[string]any{"yes": true, "no": false, "str": "true"}

	assert.True(t, BoolProp(props, "yes"))
	assert.False(t, BoolProp(props, "no"))
	assert.False(t, BoolProp(props, "str"))
	assert.False(t, BoolProp(props, "missing"))
}

func TestTimeProp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	props := map[string]any{
		"plain": now,
		"local": dbtype.LocalDateTime(now),
	}

	assert.Equal(t, now, TimeProp(props, "plain"))
	assert.Equal(t, now, TimeProp(props, "local"))
	assert.True(t, TimeProp(props, "missing").IsZero())
}

func TestNodeProps(t *testing.T) {
	raw := map[string]any{"id": "a1"}

	assert.Equal(t, raw, NodeProps(raw))
	assert.Equal(t, raw, NodeProps(dbtype.Node{Props: raw}))
	assert.Nil(t, NodeProps("not a node"))
	assert.Nil(t, NodeProps(nil))
}
