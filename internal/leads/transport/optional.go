package transport

import (
	"encoding/json"
	"time"
)

// OptionalTime distinguishes an absent field from an explicit null, so that
// updates can clear a timestamp.
type OptionalTime struct {
	Value *time.Time
	Set   bool
}

func (o OptionalTime) IsZero() bool {
	return !o.Set
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		o.Value = nil
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return err
	}
	o.Value = &parsed
	return nil
}
