package deebot

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
)

// Command is an immutable descriptor handed to the transport. Args is
// either a keyed parameter map or an ordered parameter list, depending
// on what the wire command expects.
type Command struct {
	Name string
	Args any
	ID   string
}

func (c Command) String() string {
	return c.Name + " command"
}

// requestID returns the caller-supplied id verbatim, or a decimal string
// drawn uniformly from [1, 99999999]. Some device generations echo it on
// replies; no collision detection happens on our side.
func requestID(custom string) string {
	if custom != "" {
		return custom
	}
	return strconv.Itoa(rand.Intn(99999999) + 1)
}

func newCommand(name string, args any) Command {
	return Command{Name: name, Args: args, ID: requestID("")}
}

// translate maps a canonical value to its wire form, passing unknown
// values through unmodified so the device gets to reject them.
func translate(table map[string]string, value string) string {
	if wire, ok := table[value]; ok {
		return wire
	}
	return value
}

// coerceCount turns a repeat-count argument of any supported type into a
// positive integer, defaulting to 1.
func coerceCount(value any) int {
	switch typed := value.(type) {
	case nil:
		return 1
	case int:
		if typed > 0 {
			return typed
		}
	case float64:
		if typed > 0 {
			return int(typed)
		}
	case string:
		if n, err := strconv.Atoi(typed); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// Clean builds the base cleaning command from a canonical mode and
// action, with optional parameter overrides.
func Clean(mode, action string, overrides map[string]any) Command {
	args := map[string]any{
		"type":  translate(cleanModeToWire, mode),
		"speed": fanSpeedToWire["normal"],
		"act":   translate(cleanActionToWire, action),
	}
	for key, value := range overrides {
		args[key] = value
	}
	return newCommand("clean", args)
}

// Edge starts an edge-cleaning run.
func Edge() Command {
	return Clean("edge", "start", nil)
}

// Spot starts a spot-cleaning run at the current position.
func Spot() Command {
	return Clean("spot", "start", map[string]any{"content": "0,0"})
}

// SpotArea cleans the named areas given by a non-empty area descriptor.
func SpotArea(action, area string, cleanings any) (Command, error) {
	if area == "" {
		return Command{}, errors.New("spot area requires a non-empty area descriptor")
	}
	return Clean("spot_area", action, map[string]any{
		"content": area,
		"count":   coerceCount(cleanings),
	}), nil
}

// CustomArea cleans a free-form map region given by a non-empty
// coordinate descriptor.
func CustomArea(action, area string, cleanings any) (Command, error) {
	if area == "" {
		return Command{}, errors.New("custom area requires a non-empty area descriptor")
	}
	return Clean("custom_area", action, map[string]any{
		"content": area,
		"count":   coerceCount(cleanings),
	}), nil
}

func Pause() Command {
	return newCommand("clean", map[string]any{"act": "pause"})
}

func Resume() Command {
	return newCommand("clean", map[string]any{"act": "resume"})
}

func Stop() Command {
	return newCommand("clean", map[string]any{"act": "stop"})
}

// Charge sends the device back to the dock.
func Charge() Command {
	return newCommand("charge", map[string]any{"act": chargeModeToWire["return"]})
}

// PlaySound plays the numbered announcement; 0 is the locate beep.
func PlaySound(sid any) Command {
	n := 0
	switch typed := sid.(type) {
	case int:
		n = typed
	case float64:
		n = int(typed)
	case string:
		n, _ = strconv.Atoi(typed)
	}
	return newCommand("playSound", map[string]any{"count": 1, "sid": n})
}

func GetDeviceInfo() Command {
	return newCommand("getDeviceInfo", nil)
}

func GetCleanState() Command {
	return newCommand("getCleanInfo", nil)
}

func GetChargeState() Command {
	return newCommand("getChargeState", nil)
}

func GetBatteryState() Command {
	return newCommand("getBattery", nil)
}

// GetLifeSpan queries the remaining life of one component; the canonical
// component name is translated to its wire form.
func GetLifeSpan(component string) Command {
	return newCommand("getLifeSpan", []any{translate(componentToWire, component)})
}

func GetCleanSpeed() Command {
	return newCommand("getSpeed", nil)
}

// SetCleanSpeed accepts a canonical fan speed; invalid levels pass
// through unmodified, deferring rejection to the device.
func SetCleanSpeed(level string) Command {
	return newCommand("setSpeed", map[string]any{"speed": translate(fanSpeedToWire, level)})
}

func GetWaterLevel() Command {
	return newCommand("getWaterInfo", nil)
}

func SetWaterLevel(level string) Command {
	return newCommand("setWaterInfo", map[string]any{"amount": translate(waterLevelToWire, level)})
}

func GetWaterBoxInfo() Command {
	return newCommand("getWaterBoxInfo", nil)
}

func GetFirmwareVersion() Command {
	return newCommand("getVersion", map[string]any{"name": "FW"})
}

// GetPosition queries both the device and the charger position.
func GetPosition() Command {
	return newCommand("getPos", []any{"chargePos", "deebotPos"})
}

func GetNetInfo() Command {
	return newCommand("getNetInfo", nil)
}

func GetCleanSum() Command {
	return newCommand("getTotalStats", nil)
}

func GetSleepStatus() Command {
	return newCommand("getSleep", nil)
}

// GetMaps queries the cached base-map catalog.
func GetMaps() Command {
	return newCommand("getCachedMapInfo", nil)
}

// GetMapSet requests the catalog of one map subset type for the given
// map: "sa" for named areas, "vw" for barriers.
func GetMapSet(mapID, subsetType string) Command {
	return newCommand("getMapSet", map[string]any{"mid": mapID, "tp": subsetType})
}

// PullM requests the full geometry of one catalog entry. The sequence is
// the entry's local identifier; the device echoes it offset into the
// request-id space on the reply.
func PullM(sequence int, subsetType, mapID, entryID string) Command {
	return newCommand("pullM", map[string]any{
		"id":   sequence,
		"tp":   subsetType,
		"mid":  mapID,
		"msid": entryID,
	})
}

// PullMP requests one compressed map piece by index.
func PullMP(pieceIndex int) Command {
	return newCommand("pullMP", map[string]any{"pid": pieceIndex})
}

// Move nudges the device in one direction: forward, backward, left,
// right or turn_around.
func Move(direction string) (Command, error) {
	switch direction {
	case "forward", "backward", "left", "right", "turn_around", "stop":
		return newCommand("move", map[string]any{"act": direction}), nil
	default:
		return Command{}, fmt.Errorf("unknown move direction %q", direction)
	}
}

// GetCleanLogs queries the clean-log history, optionally limited.
func GetCleanLogs(count int) Command {
	if count <= 0 {
		return newCommand("getCleanLogs", nil)
	}
	return newCommand("getCleanLogs", map[string]any{"count": count})
}

// SetTime sets the device clock.
func SetTime(timestamp int64, timezone string) Command {
	return newCommand("setTime", map[string]any{
		"time": map[string]any{"t": timestamp, "tz": timezone},
	})
}

// WithID returns a copy of the command carrying the supplied request id.
func (c Command) WithID(id string) Command {
	c.ID = requestID(id)
	return c
}
