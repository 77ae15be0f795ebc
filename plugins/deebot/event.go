package deebot

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Event is a decoded payload from the transport. Depending on firmware
// generation it is either a flat attribute map or an attribute map plus
// an ordered list of child payloads (catalogs, clean logs).
type Event struct {
	Name     string
	Attrs    map[string]string
	Children []Event
}

// Attr returns the named attribute and whether it was present.
func (e Event) Attr(key string) (string, bool) {
	if e.Attrs == nil {
		return "", false
	}
	v, ok := e.Attrs[key]
	return v, ok
}

// AttrInt parses the named attribute as an integer.
func (e Event) AttrInt(key string) (int, bool) {
	raw, ok := e.Attr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AttrFloat parses the named attribute as a float.
func (e Event) AttrFloat(key string) (float64, bool) {
	raw, ok := e.Attr(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// DecodeEvent builds an Event from a loosely-typed JSON payload. Scalar
// values are coerced to strings; nested objects under "ctl" or "body"
// wrappers are flattened one level, and child lists become child events.
func DecodeEvent(name string, raw []byte) (Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Event{}, fmt.Errorf("decode %s event: %w", name, err)
	}
	return eventFromMap(name, payload), nil
}

func eventFromMap(name string, payload map[string]any) Event {
	event := Event{Name: name, Attrs: make(map[string]string)}
	for key, value := range payload {
		switch typed := value.(type) {
		case map[string]any:
			// One level of nesting is enough for the wire shapes we
			// consume ({"ctl":{"battery":{"power":...}}} and friends).
			for innerKey, innerValue := range flattenMap(typed) {
				event.Attrs[innerKey] = innerValue
			}
		case []any:
			for _, item := range typed {
				child, ok := item.(map[string]any)
				if !ok {
					continue
				}
				event.Children = append(event.Children, eventFromMap("", child))
			}
		default:
			event.Attrs[key] = scalarString(value)
		}
	}
	return event
}

func flattenMap(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for key, value := range payload {
		switch typed := value.(type) {
		case map[string]any:
			for innerKey, innerValue := range flattenMap(typed) {
				out[innerKey] = innerValue
			}
		case []any:
			// Lists inside nested attributes carry no state we track.
		default:
			out[key] = scalarString(value)
		}
	}
	return out
}

func scalarString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		if typed {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
