package highlight

import (
	"encoding/json"
	"fmt"
	"math"
)

var rawMatchFields = [...]string{"startA", "endA", "startB", "endB", "lineA", "lineB"}

// ParseRawMatches decodes a JSON array of raw match records. Records that are
// not objects, or miss a field, or carry a non-integral value, are skipped and
// counted; only a payload that is not an array at all is an error.
func ParseRawMatches(data []byte) ([]RawMatch, int, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("raw matches are not a JSON array: %w", err)
	}

	matches := make([]RawMatch, 0, len(records))
	dropped := 0
	for _, rec := range records {
		m, ok := parseRawMatch(rec)
		if !ok {
			dropped++
			continue
		}
		matches = append(matches, m)
	}
	return matches, dropped, nil
}

func parseRawMatch(rec json.RawMessage) (RawMatch, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil || fields == nil {
		return RawMatch{}, false
	}

	var vals [len(rawMatchFields)]int
	for i, name := range rawMatchFields {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return RawMatch{}, false
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return RawMatch{}, false
		}
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return RawMatch{}, false
		}
		vals[i] = int(f)
	}

	return RawMatch{
		StartA: vals[0],
		EndA:   vals[1],
		StartB: vals[2],
		EndB:   vals[3],
		LineA:  vals[4],
		LineB:  vals[5],
	}, true
}
