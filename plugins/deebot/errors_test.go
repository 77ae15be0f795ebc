package deebot

import "testing"

func errorEvent(attrs map[string]string) Event {
	return Event{Name: EventError, Attrs: attrs}
}

func TestResolveErrorPriority(t *testing.T) {
	// errno outranks error regardless of map iteration order.
	state := ResolveError(errorEvent(map[string]string{"errno": "105", "error": "102"}), ErrorCodes)
	if state.Code != "105" {
		t.Fatalf("expected errno to win, got %q", state.Code)
	}

	state = ResolveError(errorEvent(map[string]string{"code": "102", "errno": "105"}), ErrorCodes)
	if state.Code != "102" {
		t.Fatalf("expected code to win, got %q", state.Code)
	}
}

func TestResolveErrorClearedTransition(t *testing.T) {
	// Empty "new" next to a non-empty "old" means the error cleared.
	state := ResolveError(errorEvent(map[string]string{"new": "", "old": "3"}), ErrorCodes)
	if state.Code != "0" {
		t.Fatalf("expected cleared error, got %q", state.Code)
	}

	state = ResolveError(errorEvent(map[string]string{"new": "102", "old": "0"}), ErrorCodes)
	if state.Code != "102" {
		t.Fatalf("expected new code, got %q", state.Code)
	}
}

func TestResolveErrorNoErrorSentinel(t *testing.T) {
	state := ResolveError(errorEvent(map[string]string{"code": "100"}), ErrorCodes)
	if state.Code != "0" || state.Description != "" {
		t.Fatalf("code 100 must normalize to 0 with empty description, got %+v", state)
	}
}

func TestResolveErrorUnknownCode(t *testing.T) {
	state := ResolveError(errorEvent(map[string]string{"code": "9999"}), ErrorCodes)
	if state.Code != "9999" {
		t.Fatalf("unexpected code: %q", state.Code)
	}
	if state.Description != "unknown errorCode: 9999" {
		t.Fatalf("unexpected description: %q", state.Description)
	}
}

func TestResolveErrorEmptyEvent(t *testing.T) {
	state := ResolveError(errorEvent(nil), ErrorCodes)
	if state.Code != "0" {
		t.Fatalf("empty event must resolve to no error, got %q", state.Code)
	}
}

func TestResolveErrorIdempotent(t *testing.T) {
	event := errorEvent(map[string]string{"errno": "104"})
	first := ResolveError(event, ErrorCodes)
	second := ResolveError(event, ErrorCodes)
	if first != second {
		t.Fatalf("resolution not idempotent: %+v vs %+v", first, second)
	}
}
