package selection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrees() []Tree {
	return []Tree{
		{},
		All(),
		Select("amount"),
		Select("from", "to"),
		Fields(map[string]Tree{
			"call": Fields(map[string]Tree{"args": All(), "origin": Select("value")}),
		}),
		Fields(map[string]Tree{
			"call":      Select("args"),
			"extrinsic": Select("hash", "fee"),
		}),
	}
}

func TestMergeField_EverythingAbsorbs(t *testing.T) {
	for _, x := range sampleTrees() {
		assert.Equal(t, Everything, MergeField(All(), x).Kind())
		assert.Equal(t, Everything, MergeField(x, All()).Kind())
	}
}

func TestMergeField_AbsentIsIdentity(t *testing.T) {
	for _, x := range sampleTrees() {
		assert.True(t, x.Equal(MergeField(Tree{}, x)))
		assert.True(t, x.Equal(MergeField(x, Tree{})))
	}
}

func TestMergeField_Commutative(t *testing.T) {
	trees := sampleTrees()
	for _, a := range trees {
		for _, b := range trees {
			assert.True(t, MergeField(a, b).Equal(MergeField(b, a)))
		}
	}
}

func TestMergeField_Idempotent(t *testing.T) {
	for _, x := range sampleTrees() {
		assert.True(t, x.Equal(MergeField(x, x)))
	}
}

func TestMergeField_Recursive(t *testing.T) {
	a := Fields(map[string]Tree{
		"call":   Fields(map[string]Tree{"args": All(), "origin": Select("value")}),
		"amount": All(),
	})
	b := Fields(map[string]Tree{
		"call":      Fields(map[string]Tree{"origin": Select("kind"), "error": All()}),
		"extrinsic": Select("hash"),
	})

	merged := MergeField(a, b)
	require.Equal(t, Partial, merged.Kind())
	assert.ElementsMatch(t, []string{"call", "amount", "extrinsic"}, merged.Keys())
	assert.Equal(t, Everything, merged.Field("amount").Kind())
	assert.True(t, Select("hash").Equal(merged.Field("extrinsic")))

	call := merged.Field("call")
	assert.ElementsMatch(t, []string{"args", "origin", "error"}, call.Keys())
	assert.True(t, Select("value", "kind").Equal(call.Field("origin")))
}

func TestMergeSelection(t *testing.T) {
	for _, x := range sampleTrees() {
		assert.True(t, MergeSelection(Tree{}, x).IsAbsent())
		assert.True(t, MergeSelection(x, Tree{}).IsAbsent())
	}

	merged := MergeSelection(Select("amount"), Select("from"))
	assert.ElementsMatch(t, []string{"amount", "from"}, merged.Keys())

	assert.Equal(t, Everything, MergeSelection(All(), Select("from")).Kind())
}

func TestTreeJSON(t *testing.T) {
	var tree Tree
	require.NoError(t, json.Unmarshal([]byte(`{"call":{"args":true,"origin":false},"extrinsic":true}`), &tree))

	assert.Equal(t, Partial, tree.Kind())
	assert.ElementsMatch(t, []string{"call", "extrinsic"}, tree.Keys())
	assert.Equal(t, []string{"args"}, tree.Field("call").Keys())

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"call":{"args":true},"extrinsic":true}`, string(out))

	out, err = json.Marshal(Tree{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`42`), &tree))
}
