package shape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatShardsDropsRelocatingRows(t *testing.T) {
	input := []interface{}{
		map[string]interface{}{"index": "orders", "state": "RELOCATING"},
		map[string]interface{}{"index": "orders", "state": "STARTED"},
	}

	out := Cat("cat_shards", input).([]interface{})
	require.Len(t, out, 1)
	row := out[0].(map[string]interface{})
	assert.Equal(t, "STARTED", row["state"])
}

func TestCatAliasesDropsDotIndicesAndInjectsInfo(t *testing.T) {
	input := []interface{}{
		map[string]interface{}{"index": ".security", "alias": "sec"},
		map[string]interface{}{"index": "orders", "alias": "orders_alias"},
	}

	out := Cat("cat_aliases", input).([]interface{})
	require.Len(t, out, 1)
	row := out[0].(map[string]interface{})
	assert.Equal(t, "orders", row["index"])
	assert.Equal(t, json.Number("1"), row["info"])
}

func TestCatUnknownSubsystemPassesThrough(t *testing.T) {
	input := []interface{}{
		map[string]interface{}{"node": "a"},
	}
	out := Cat("cat_thread_pool", input).([]interface{})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].(map[string]interface{})["node"])
}
