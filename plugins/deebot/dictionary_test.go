package deebot

import "testing"

func TestFanSpeedRoundTrip(t *testing.T) {
	for canonical, wire := range fanSpeedToWire {
		back, ok := fanSpeedFromWire[wire]
		if !ok {
			t.Fatalf("fan speed %q has no reverse mapping for %q", canonical, wire)
		}
		if back != canonical {
			t.Fatalf("fan speed %q round-tripped to %q", canonical, back)
		}
	}
}

func TestWaterLevelRoundTrip(t *testing.T) {
	for canonical, wire := range waterLevelToWire {
		back, ok := waterLevelFromWire[wire]
		if !ok {
			t.Fatalf("water level %q has no reverse mapping for %q", canonical, wire)
		}
		if back != canonical {
			t.Fatalf("water level %q round-tripped to %q", canonical, back)
		}
	}
}

func TestComponentRoundTrip(t *testing.T) {
	for canonical, wire := range componentToWire {
		back, ok := componentFromWire[wire]
		if !ok {
			t.Fatalf("component %q has no reverse mapping for %q", canonical, wire)
		}
		if back != canonical {
			t.Fatalf("component %q round-tripped to %q", canonical, back)
		}
	}
}

func TestChargeModeCollapses(t *testing.T) {
	// Both dock types collapse to plain charging; this is deliberate and
	// must never become a round trip.
	if chargeModeFromWire["slot_charging"] != "charging" {
		t.Fatalf("slot_charging must normalize to charging")
	}
	if chargeModeFromWire["wire_charging"] != "charging" {
		t.Fatalf("wire_charging must normalize to charging")
	}
	if chargeModeFromWire["going"] != "returning" {
		t.Fatalf("going must normalize to returning")
	}
	if chargeModeToWire["return"] != "go" {
		t.Fatalf("return must encode as go")
	}
}

func TestCleanModeFromWireExtras(t *testing.T) {
	// The wire reports states the encoder never sends.
	if cleanModeFromWire["goCharging"] != "returning" {
		t.Fatalf("goCharging must normalize to returning")
	}
	if cleanModeFromWire["spotArea"] != "spot_area" {
		t.Fatalf("spotArea must normalize to spot_area")
	}
	if cleanModeToWire["spot_area"] != "spotArea" {
		t.Fatalf("spot_area must encode as spotArea")
	}
}

func TestCleanActionSingleLetters(t *testing.T) {
	cases := map[string]string{"s": "start", "p": "pause", "r": "resume", "h": "stop"}
	for wire, want := range cases {
		if got := cleanActionFromWire[wire]; got != want {
			t.Fatalf("action %q decoded to %q, want %q", wire, got, want)
		}
	}
}
