package deebot

// Translation tables between the canonical vocabulary (what the API and
// the app manuals use) and the vendor wire vocabulary (oddly named, with
// random capitalization). Each direction is spelled out explicitly: some
// mappings are not bijective, so nothing here is inverted at runtime.
// Callers treat a missing key as "unrecognized value" and leave the
// corresponding field unset.

var cleanModeToWire = map[string]string{
	"auto":        "auto",
	"edge":        "edge",
	"spot":        "spot",
	"spot_area":   "spotArea",
	"custom_area": "customArea",
	"stop":        "stop",
}

var cleanModeFromWire = map[string]string{
	"auto":       "auto",
	"customArea": "custom_area",
	"spot":       "spot",
	"spotArea":   "spot_area",
	"stop":       "stop",
	"pause":      "pause",
	"goCharging": "returning",
	"idle":       "idle",
}

var cleanActionToWire = map[string]string{
	"start":  "start",
	"pause":  "pause",
	"resume": "resume",
	"stop":   "stop",
}

// Older firmware reports actions as single letters.
var cleanActionFromWire = map[string]string{
	"s": "start",
	"p": "pause",
	"r": "resume",
	"h": "stop",
}

var fanSpeedToWire = map[string]string{
	"silent":   "1000",
	"normal":   "0",
	"high":     "1",
	"veryhigh": "2",
}

var fanSpeedFromWire = map[string]string{
	"1000": "silent",
	"0":    "normal",
	"1":    "high",
	"2":    "veryhigh",
}

var waterLevelToWire = map[string]string{
	"low":       "1",
	"medium":    "2",
	"high":      "3",
	"ultrahigh": "4",
}

var waterLevelFromWire = map[string]string{
	"1": "low",
	"2": "medium",
	"3": "high",
	"4": "ultrahigh",
}

var chargeModeToWire = map[string]string{
	"return":    "go",
	"returning": "returning",
	"charging":  "charging",
	"idle":      "idle",
}

// slot_charging and wire_charging both collapse to "charging": the
// canonical model does not distinguish dock types.
var chargeModeFromWire = map[string]string{
	"going":         "returning",
	"slot_charging": "charging",
	"wire_charging": "charging",
	"idle":          "idle",
}

var componentToWire = map[string]string{
	"main_brush": "brush",
	"side_brush": "sideBrush",
	"filter":     "heap",
}

var componentFromWire = map[string]string{
	"brush":     "main_brush",
	"sideBrush": "side_brush",
	"heap":      "filter",
}
