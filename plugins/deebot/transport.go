package deebot

import "context"

// Event names delivered by the transport collaborator. These are the
// vendor's report names normalized across firmware generations.
const (
	EventCleanReport    = "CleanReport"
	EventCleanSpeed     = "CleanSpeed"
	EventChargeState    = "ChargeState"
	EventBatteryInfo    = "BatteryInfo"
	EventLifeSpan       = "LifeSpan"
	EventWaterLevel     = "WaterLevel"
	EventWaterBoxInfo   = "WaterBoxInfo"
	EventDustCaseInfo   = "DustCaseInfo"
	EventSleepStatus    = "SleepStatus"
	EventNetInfo        = "NetInfo"
	EventCleanSum       = "CleanSum"
	EventCleanLogs      = "CleanLogs"
	EventPosition       = "DeebotPosition"
	EventChargePosition = "ChargePosition"
	EventMap            = "MapP"
	EventMapSet         = "MapSet"
	EventMapSubset      = "PullM"
	EventError          = "Error"

	// SignalReady is emitted once the transport session is established.
	SignalReady = "ready"
	// SignalKeepaliveFailed carries the error of a failed keepalive.
	SignalKeepaliveFailed = "keepalive_failed"
)

// subscribedEvents is every event the session routes to a handler.
var subscribedEvents = []string{
	EventCleanReport,
	EventCleanSpeed,
	EventChargeState,
	EventBatteryInfo,
	EventLifeSpan,
	EventWaterLevel,
	EventWaterBoxInfo,
	EventDustCaseInfo,
	EventSleepStatus,
	EventNetInfo,
	EventCleanSum,
	EventCleanLogs,
	EventPosition,
	EventChargePosition,
	EventMap,
	EventMapSet,
	EventMapSubset,
	EventError,
}

// Transport is the session collaborator that owns the wire connection.
// Implementations serialize command descriptors into the vendor framing
// and route decoded replies back as events. SendKeepalive must signal
// failure explicitly, never silently.
type Transport interface {
	Subscribe(name string, handler func(Event)) error
	SendCommand(cmd Command, deviceAddress string) error
	SendKeepalive(deviceAddress string) error
	ConnectAndWaitUntilReady(ctx context.Context) error
	Disconnect() error
}
