package ai

import (
	"encoding/json"
	"fmt"
)

// MaxBatchSize is the hard cap on actions per batch, enforced before any
// mutation happens.
const MaxBatchSize = 50

// Parsed is the outcome of validating model output. Interpretation is the
// model's own explanation of what it understood and is always present, even
// when every action was dropped.
type Parsed struct {
	Actions        []Action
	Interpretation string
	Dropped        int
}

// ParseLenient validates model output. The input is adversarial free text,
// so malformed or unknown actions and dangling bin references are silently
// dropped rather than failing the whole response; the caller can tell from
// Dropped how many were discarded. Only an unparseable top-level envelope is
// an error.
func ParseLenient(raw []byte, knownBinIDs map[string]bool) (Parsed, error) {
	var envelope struct {
		Actions        []json.RawMessage `json:"actions"`
		Interpretation string            `json:"interpretation"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Parsed{}, fmt.Errorf("response is not a JSON action envelope: %w", err)
	}

	parsed := Parsed{Interpretation: envelope.Interpretation}
	for _, rawAction := range envelope.Actions {
		var a Action
		if err := json.Unmarshal(rawAction, &a); err != nil {
			parsed.Dropped++
			continue
		}
		if ferr := checkAction(&a, knownBinIDs); ferr != nil {
			parsed.Dropped++
			continue
		}
		parsed.Actions = append(parsed.Actions, a)
	}

	return parsed, nil
}

// ValidationError reports the first structurally invalid operation in a
// batch request, identifying it by index.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Message
	}
	if e.Field == "" {
		return fmt.Sprintf("operation %d: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("operation %d: field %q: %s", e.Index, e.Field, e.Message)
}

// ValidateStrict validates caller-supplied batch operations against the same
// grammar as ParseLenient, but treats the input as a hard API contract: the
// first malformed operation rejects the entire batch with a *ValidationError
// naming the operation and field.
func ValidateStrict(ops []json.RawMessage, knownBinIDs map[string]bool) ([]Action, error) {
	if len(ops) == 0 {
		return nil, &ValidationError{Index: -1, Message: "at least one operation is required"}
	}
	if len(ops) > MaxBatchSize {
		return nil, &ValidationError{Index: -1, Message: fmt.Sprintf("too many operations: %d exceeds the limit of %d", len(ops), MaxBatchSize)}
	}

	actions := make([]Action, 0, len(ops))
	for i, rawOp := range ops {
		var a Action
		if err := json.Unmarshal(rawOp, &a); err != nil {
			return nil, &ValidationError{Index: i, Message: "malformed operation: " + err.Error()}
		}
		if ferr := checkAction(&a, knownBinIDs); ferr != nil {
			return nil, &ValidationError{Index: i, Field: ferr.field, Message: ferr.msg}
		}
		actions = append(actions, a)
	}

	return actions, nil
}
