package cortex

import (
	"encoding/json"
	"errors"
)

// Delta is the canonical form of one incremental agent update, independent
// of where the vendor placed it inside the event.
type Delta struct {
	Content []json.RawMessage
}

var errNotObject = errors.New("event is not a JSON object")

// extractDelta parses a frame payload and locates its delta, either at the
// top level or nested under "data". ok is false when the frame carries no
// usable delta; err is set only when the payload itself is not valid JSON.
func extractDelta(payload string) (delta Delta, ok bool, err error) {
	var event map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Delta{}, false, &ParseError{Payload: payload, Err: err}
	}
	if event == nil {
		return Delta{}, false, &ParseError{Payload: payload, Err: errNotObject}
	}

	fields, found := decodeObject(event["delta"])
	if !found {
		data, isObject := decodeObject(event["data"])
		if !isObject {
			return Delta{}, false, nil
		}
		if fields, found = decodeObject(data["delta"]); !found {
			return Delta{}, false, nil
		}
	}

	var content []json.RawMessage
	if raw, present := fields["content"]; present {
		// A non-array content is treated the same as a missing one.
		_ = json.Unmarshal(raw, &content)
	}
	return Delta{Content: content}, true, nil
}

// decodeObject reports whether raw holds a non-empty JSON object and returns its fields.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil, false
	}
	return fields, true
}
