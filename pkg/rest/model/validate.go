package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ValidationError is returned when a JSON payload does not satisfy the contract of the model
// it is being decoded into.
type ValidationError struct {
	Model   string   // Model being decoded, ex: "message"
	Missing []string // Required keys that were absent or null
	Err     error    // Underlying decode or invariant error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid %s: missing required fields: %s",
			e.Model, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invalid %s: %v", e.Model, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// requireFields checks that data is a JSON object carrying a non-null value for every key.
// It returns the decoded object so callers may inspect optional keys.
func requireFields(model string, data []byte, keys ...string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &ValidationError{Model: model, Err: err}
	}
	if obj == nil {
		return nil, &ValidationError{Model: model, Err: errors.New("payload is null")}
	}
	var missing []string
	for _, k := range keys {
		if !present(obj, k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Model: model, Missing: missing}
	}
	return obj, nil
}

// present reports whether key holds a non-null value.
func present(obj map[string]json.RawMessage, key string) bool {
	v, ok := obj[key]
	return ok && string(v) != "null"
}

// decodeInto unmarshals data into v, converting decode failures into a ValidationError for
// model. Nested ValidationErrors are passed through untouched.
func decodeInto(model string, data []byte, v interface{}) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return &ValidationError{Model: model, Err: err}
}
