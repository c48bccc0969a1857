package ai

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBins = map[string]bool{"bin-1": true, "bin-2": true}

func TestParseLenientAcceptsValidEnvelope(t *testing.T) {
	raw := []byte(`{
		"actions": [
			{"type": "add_items", "bin_id": "bin-1", "items": ["Hammer", "Pliers"]},
			{"type": "set_color", "bin_id": "bin-2", "color": "teal"}
		],
		"interpretation": "Added tools and recolored a bin."
	}`)

	parsed, err := ParseLenient(raw, testBins)
	require.NoError(t, err)

	assert.Equal(t, "Added tools and recolored a bin.", parsed.Interpretation)
	assert.Equal(t, 0, parsed.Dropped)
	require.Len(t, parsed.Actions, 2)
	assert.Equal(t, ActionAddItems, parsed.Actions[0].Type)
	assert.Equal(t, []string{"Hammer", "Pliers"}, parsed.Actions[0].Items)
	assert.Equal(t, ActionSetColor, parsed.Actions[1].Type)
}

func TestParseLenientDropsBadActionsSilently(t *testing.T) {
	raw := []byte(`{
		"actions": [
			{"type": "add_items", "bin_id": "bin-1", "items": ["Hammer"]},
			{"type": "teleport_bin", "bin_id": "bin-1"},
			{"type": "add_items", "bin_id": "made-up", "items": ["Ghost"]},
			{"type": "add_items", "bin_id": "bin-1", "items": []},
			{"type": "remove_items", "bin_id": "bin-2", "items": ["Tape"]}
		],
		"interpretation": "Did some things."
	}`)

	parsed, err := ParseLenient(raw, testBins)
	require.NoError(t, err)

	assert.Equal(t, 3, parsed.Dropped)
	require.Len(t, parsed.Actions, 2)
	assert.Equal(t, ActionAddItems, parsed.Actions[0].Type)
	assert.Equal(t, ActionRemoveItems, parsed.Actions[1].Type)
}

func TestParseLenientKeepsInterpretationWhenAllDropped(t *testing.T) {
	raw := []byte(`{
		"actions": [{"type": "nonsense"}],
		"interpretation": "I could not find that bin."
	}`)

	parsed, err := ParseLenient(raw, testBins)
	require.NoError(t, err)

	assert.Empty(t, parsed.Actions)
	assert.Equal(t, 1, parsed.Dropped)
	assert.Equal(t, "I could not find that bin.", parsed.Interpretation)
}

func TestParseLenientEmptyActions(t *testing.T) {
	raw := []byte(`{"actions": [], "interpretation": "That is a question, not a command."}`)

	parsed, err := ParseLenient(raw, testBins)
	require.NoError(t, err)

	assert.Empty(t, parsed.Actions)
	assert.Equal(t, 0, parsed.Dropped)
	assert.NotEmpty(t, parsed.Interpretation)
}

func TestParseLenientRejectsNonEnvelope(t *testing.T) {
	_, err := ParseLenient([]byte(`["not", "an", "object"]`), testBins)
	assert.Error(t, err)
}

func TestParseLenientDropsUnmarshalableAction(t *testing.T) {
	// items as a number fails the per-action unmarshal, not the envelope.
	raw := []byte(`{"actions": [{"type": "add_items", "bin_id": "bin-1", "items": 5}], "interpretation": "x"}`)

	parsed, err := ParseLenient(raw, testBins)
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Dropped)
	assert.Empty(t, parsed.Actions)
}

func ops(jsons ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(jsons))
	for i, s := range jsons {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestValidateStrictAcceptsValidBatch(t *testing.T) {
	actions, err := ValidateStrict(ops(
		`{"type": "create_bin", "name": "Paint Supplies", "tags": ["paint"]}`,
		`{"type": "add_items", "bin_id": "bin-1", "items": [" Brush ", "", "Roller"]}`,
	), testBins)
	require.NoError(t, err)

	require.Len(t, actions, 2)
	assert.Equal(t, "Paint Supplies", actions[0].Name)
	assert.Equal(t, []string{"Brush", "Roller"}, actions[1].Items, "entries are trimmed and empties dropped")
}

func TestValidateStrictRejectsByIndex(t *testing.T) {
	_, err := ValidateStrict(ops(
		`{"type": "add_items", "bin_id": "bin-1", "items": ["Hammer"]}`,
		`{"type": "add_items", "bin_id": "bin-1", "items": []}`,
	), testBins)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Index)
	assert.Equal(t, "items", verr.Field)
}

func TestValidateStrictRejectsEmptyBatch(t *testing.T) {
	_, err := ValidateStrict(nil, testBins)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, -1, verr.Index)
}

func TestValidateStrictRejectsOversizedBatch(t *testing.T) {
	batch := make([]json.RawMessage, MaxBatchSize+1)
	for i := range batch {
		batch[i] = json.RawMessage(`{"type": "add_items", "bin_id": "bin-1", "items": ["x"]}`)
	}

	_, err := ValidateStrict(batch, testBins)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "51")
}

func TestValidateStrictRejectsUnknownBin(t *testing.T) {
	_, err := ValidateStrict(ops(`{"type": "delete_bin", "bin_id": "nope"}`), testBins)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, verr.Index)
	assert.Equal(t, "bin_id", verr.Field)
}

func TestCheckActionGrammar(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{"missing type", `{"bin_id": "bin-1"}`, "type"},
		{"unknown type", `{"type": "explode", "bin_id": "bin-1"}`, "type"},
		{"missing bin_id", `{"type": "add_items", "items": ["x"]}`, "bin_id"},
		{"whitespace items only", `{"type": "add_items", "bin_id": "bin-1", "items": ["  "]}`, "items"},
		{"remove_tags empty", `{"type": "remove_tags", "bin_id": "bin-1", "tags": []}`, "tags"},
		{"modify_item no old", `{"type": "modify_item", "bin_id": "bin-1", "new_item": "x"}`, "old_item"},
		{"modify_item no new", `{"type": "modify_item", "bin_id": "bin-1", "old_item": "x"}`, "new_item"},
		{"modify_tag no old", `{"type": "modify_tag", "bin_id": "bin-1", "new_tag": "x"}`, "old_tag"},
		{"create_bin no name", `{"type": "create_bin", "items": ["x"]}`, "name"},
		{"set_area no name", `{"type": "set_area", "bin_id": "bin-1", "area_id": null}`, "area_name"},
		{"set_notes bad mode", `{"type": "set_notes", "bin_id": "bin-1", "notes": "x", "mode": "replace"}`, "mode"},
		{"set_notes no mode", `{"type": "set_notes", "bin_id": "bin-1", "notes": "x"}`, "mode"},
		{"set_icon empty", `{"type": "set_icon", "bin_id": "bin-1", "icon": " "}`, "icon"},
		{"set_color empty", `{"type": "set_color", "bin_id": "bin-1"}`, "color"},
		{"update_bin no name", `{"type": "update_bin", "bin_id": "bin-1"}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Action
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &a))
			ferr := checkAction(&a, testBins)
			require.NotNil(t, ferr)
			assert.Equal(t, tt.wantField, ferr.field)
		})
	}
}

func TestCheckActionAccepts(t *testing.T) {
	valid := []string{
		`{"type": "add_items", "bin_id": "bin-1", "items": ["Hammer"]}`,
		`{"type": "remove_items", "bin_id": "bin-1", "items": ["Hammer"]}`,
		`{"type": "modify_item", "bin_id": "bin-1", "old_item": "Hammr", "new_item": "Hammer"}`,
		`{"type": "create_bin", "name": "Tools"}`,
		`{"type": "delete_bin", "bin_id": "bin-1"}`,
		`{"type": "restore_bin", "bin_id": "bin-2"}`,
		`{"type": "add_tags", "bin_id": "bin-1", "tags": ["heavy"]}`,
		`{"type": "remove_tags", "bin_id": "bin-1", "tags": ["heavy"]}`,
		`{"type": "modify_tag", "bin_id": "bin-1", "old_tag": "hvy", "new_tag": "heavy"}`,
		`{"type": "set_area", "bin_id": "bin-1", "area_name": "Garage", "area_id": null}`,
		`{"type": "set_notes", "bin_id": "bin-1", "notes": "fragile", "mode": "set"}`,
		`{"type": "set_notes", "bin_id": "bin-1", "mode": "clear"}`,
		`{"type": "set_icon", "bin_id": "bin-1", "icon": "toolbox"}`,
		`{"type": "set_color", "bin_id": "bin-1", "color": "red"}`,
		`{"type": "update_bin", "bin_id": "bin-1", "name": "Hand Tools"}`,
	}
	for _, raw := range valid {
		var a Action
		require.NoError(t, json.Unmarshal([]byte(raw), &a))
		assert.Nil(t, checkAction(&a, testBins), raw)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "at least one operation is required",
		(&ValidationError{Index: -1, Message: "at least one operation is required"}).Error())
	assert.Equal(t, "operation 3: malformed operation",
		(&ValidationError{Index: 3, Message: "malformed operation"}).Error())
	assert.Equal(t, fmt.Sprintf("operation 0: field %q: items must be a non-empty list of strings", "items"),
		(&ValidationError{Index: 0, Field: "items", Message: "items must be a non-empty list of strings"}).Error())
}
