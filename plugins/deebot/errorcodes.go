package deebot

// ErrorCodes is the built-in description table for device-reported
// error codes.
var ErrorCodes = DescriptionTable{
	"0":   "NoError: Robot is operational",
	"3":   "RequestOAuthError: Authentication error",
	"7":   "LogDataNotFound: Log data is not found",
	"100": "NoError: Robot is operational",
	"101": "BatteryState: Battery state",
	"102": "PowerOff: Robot is off",
	"103": "SensorBroken: Sensor is broken",
	"104": "DownSensorAbnormal: Down sensor is abnormal",
	"105": "Stuck: Robot is stuck",
	"106": "SideBrushExhausted: Side brush is exhausted",
	"107": "DustCaseHeapExhausted: Dust case filter is exhausted",
	"108": "SideAbnormal: Side brush is abnormal",
	"109": "RollAbnormal: Main brush is abnormal",
	"110": "NoDustBox: Dust box is not installed",
	"111": "BumpAbnormal: Bump sensor is abnormal",
	"112": "LDSAbnormal: Laser distance sensor is blocked",
	"113": "MainBrushExhausted: Main brush is exhausted",
	"114": "DustCaseFilled: Dust box is full",
	"116": "RelocateFailed: Relocation failed",
	"201": "AirFilterUninstall: Air filter is not installed",
	"404": "Recipient unavailable",
	"500": "Request Timeout",
	"601": "ERROR_ClosedAIVISideAbnormal",
}
