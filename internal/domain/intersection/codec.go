package intersection

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalCollection serializes the ordered collection as a JSON array of
// {id, name, scheduleTime, durations}. A nil collection encodes as [].
func MarshalCollection(items []Intersection) ([]byte, error) {
	if items == nil {
		items = []Intersection{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode intersections: %w", err)
	}
	return data, nil
}

// UnmarshalCollection parses a stored snapshot. Missing durations take the
// defaults and the rest are clamped to at least one second.
func UnmarshalCollection(data []byte) ([]Intersection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("decode intersections: empty payload")
	}
	var items []Intersection
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode intersections: %w", err)
	}
	for i := range items {
		items[i].Durations = items[i].Durations.Restored()
	}
	return items, nil
}
