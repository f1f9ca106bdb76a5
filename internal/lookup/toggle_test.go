package lookup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyToggleDeselect(t *testing.T) {
	extended := fruitOptions()

	keys, value := ApplyToggle(Toggle{Key: "2", Selected: false}, []string{"1", "2"}, extended)

	require.Equal(t, []string{"1"}, keys)
	require.Equal(t, "Apple", value)
}

func TestApplyToggleSelectAppends(t *testing.T) {
	keys, value := ApplyToggle(Toggle{Key: "3", Selected: true}, []string{"2", "1"}, fruitOptions())

	require.Equal(t, []string{"2", "1", "3"}, keys)
	require.Equal(t, "Banana; Apple; Cherry", value)
}

func TestApplyToggleSelectExistingIsNoop(t *testing.T) {
	keys, value := ApplyToggle(Toggle{Key: "1", Selected: true}, []string{"1"}, fruitOptions())

	require.Equal(t, []string{"1"}, keys)
	require.Equal(t, "Apple", value)
}

func TestApplyToggleSelectUnknownKeyIsKeptButNotSerialized(t *testing.T) {
	keys, value := ApplyToggle(Toggle{Key: "99", Selected: true}, []string{"1"}, fruitOptions())

	require.Equal(t, []string{"1", "99"}, keys)
	require.Equal(t, "Apple", value)
}

func TestApplyToggleDeselectRemovesEveryOccurrence(t *testing.T) {
	keys, value := ApplyToggle(Toggle{Key: "1", Selected: false}, []string{"1", "2", "1"}, fruitOptions())

	require.Equal(t, []string{"2"}, keys)
	require.Equal(t, "Banana", value)
}

func TestApplyToggleStripsGhostSuffix(t *testing.T) {
	result := Reconcile(strPtr("Apple; Durian"), fruitOptions())

	keys, value := ApplyToggle(Toggle{Key: "3", Selected: true}, result.SelectedKeys, result.Options)

	require.Equal(t, []string{"1", "MISSING_Durian", "3"}, keys)
	require.Equal(t, "Apple; Durian; Cherry", value)
}

func TestApplyToggleRemovesGhost(t *testing.T) {
	result := Reconcile(strPtr("Apple; Durian"), fruitOptions())

	keys, value := ApplyToggle(Toggle{Key: "MISSING_Durian", Selected: false}, result.SelectedKeys, result.Options)

	require.Equal(t, []string{"1"}, keys)
	require.Equal(t, "Apple", value)
}

func TestApplyToggleClearsToEmptyValue(t *testing.T) {
	keys, value := ApplyToggle(Toggle{Key: "1", Selected: false}, []string{"1"}, fruitOptions())

	require.Empty(t, keys)
	require.Equal(t, "", value)
	require.Nil(t, Output(value))
}

func TestApplyToggleRoundTrip(t *testing.T) {
	fetched := fruitOptions()
	toggles := []Toggle{
		{Key: "3", Selected: true},
		{Key: "MISSING_Durian", Selected: false},
		{Key: "1", Selected: true},
		{Key: "2", Selected: true},
		{Key: "1", Selected: false},
		{Key: "MISSING_Kiwi", Selected: true},
	}

	value := "Kiwi; Durian; Banana"
	state := Reconcile(&value, fetched)
	for _, toggle := range toggles {
		keys, next := ApplyToggle(toggle, state.SelectedKeys, state.Options)

		again := Reconcile(&next, fetched)
		require.Equal(t, keys, again.SelectedKeys, "toggle %+v", toggle)

		value = next
		state = again
	}
	require.Equal(t, "Kiwi; Banana; Cherry", value)
	require.Equal(t, []string{"MISSING_Kiwi", "2", "3"}, state.SelectedKeys)
}
