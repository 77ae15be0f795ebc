package deebot

// Capability property names consulted by the session.
const (
	CapMainBrush     = "main_brush"
	CapSpotArea      = "spot_area"
	CapCustomArea    = "custom_area"
	CapMoppingSystem = "mopping_system"
	CapVoiceReport   = "voice_report"
)

// Capabilities answers which optional features a device class offers,
// so the session does not hardcode per-model behavior.
type Capabilities interface {
	Has(deviceClass, property string) bool
}

// DeviceProperties is the per-class capability record.
type DeviceProperties struct {
	Name          string
	MainBrush     bool
	SpotArea      bool
	CustomArea    bool
	MoppingSystem bool
	VoiceReport   bool
}

// DeviceTable is a static class-to-capability lookup.
type DeviceTable map[string]DeviceProperties

func (t DeviceTable) Has(deviceClass, property string) bool {
	device, ok := t[deviceClass]
	if !ok {
		return false
	}
	switch property {
	case CapMainBrush:
		return device.MainBrush
	case CapSpotArea:
		return device.SpotArea
	case CapCustomArea:
		return device.CustomArea
	case CapMoppingSystem:
		return device.MoppingSystem
	case CapVoiceReport:
		return device.VoiceReport
	default:
		return false
	}
}

// SupportedDevices lists the device classes this library has been
// exercised against. Unknown classes still work for the basic verbs;
// optional features stay gated off.
var SupportedDevices = DeviceTable{
	"126": {Name: "DEEBOT N79S/SE", MainBrush: true, VoiceReport: true},
	"155": {Name: "DEEBOT N79S/SE", MainBrush: true, VoiceReport: true},
	"165": {Name: "DEEBOT N79T", MainBrush: true, VoiceReport: true},
	"123": {Name: "DEEBOT Slim2", VoiceReport: true},
	"uv242z": {
		Name:        "DEEBOT 907",
		MainBrush:   true,
		SpotArea:    true,
		CustomArea:  true,
		VoiceReport: true,
	},
	"ls1ok3": {
		Name:        "DEEBOT 900",
		MainBrush:   true,
		SpotArea:    true,
		CustomArea:  true,
		VoiceReport: true,
	},
	"y79a7u": {
		Name:          "DEEBOT OZMO 900",
		MainBrush:     true,
		SpotArea:      true,
		CustomArea:    true,
		MoppingSystem: true,
		VoiceReport:   true,
	},
	"vi829v": {
		Name:          "DEEBOT OZMO 920",
		MainBrush:     true,
		SpotArea:      true,
		CustomArea:    true,
		MoppingSystem: true,
		VoiceReport:   true,
	},
	"yna5xi": {
		Name:          "DEEBOT OZMO 950",
		MainBrush:     true,
		SpotArea:      true,
		CustomArea:    true,
		MoppingSystem: true,
		VoiceReport:   true,
	},
	"gd4uut": {
		Name:        "DEEBOT 960",
		MainBrush:   true,
		SpotArea:    true,
		CustomArea:  true,
		VoiceReport: true,
	},
}
