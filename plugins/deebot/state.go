package deebot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CommandSender lets handlers issue follow-up commands (map discovery)
// back out through the transport collaborator.
type CommandSender interface {
	SendCommand(cmd Command) error
}

// StateStore owns the canonical DeviceState for one session and exposes
// the per-event-type handlers that translate vendor payload shapes into
// canonical fields. Handlers run to completion under the store lock, so
// no handler observes a half-updated state. Malformed events are logged
// and leave state unchanged; handlers never panic on input.
type StateStore struct {
	vacuum     Vacuum
	errorTable ErrorDescriber
	sender     CommandSender
	log        *zap.Logger

	mu              sync.Mutex
	state           DeviceState
	maps            []MapInfo
	spotAreas       map[string][]SpotAreaInfo
	barriers        map[string][]BarrierInfo
	mapSetRequested map[string]bool
}

// NewStateStore builds a store bound to one device session. A nil table
// falls back to the built-in error codes; a nil sender disables map
// follow-up commands; a nil logger is replaced with a nop logger.
func NewStateStore(vacuum Vacuum, table ErrorDescriber, sender CommandSender, log *zap.Logger) *StateStore {
	if table == nil {
		table = ErrorCodes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StateStore{
		vacuum:     vacuum,
		errorTable: table,
		sender:     sender,
		log:        log,
		state: DeviceState{
			Components: make(map[string]float64),
			CleanLogs:  make(map[string]CleanLogEntry),
			Position:   Position{CurrentAreaID: UnknownArea},
			Error:      ErrorState{Code: "0", Description: ErrorCodes["0"]},
		},
		spotAreas:       make(map[string][]SpotAreaInfo),
		barriers:        make(map[string][]BarrierInfo),
		mapSetRequested: make(map[string]bool),
	}
}

// Snapshot returns a copy of the canonical state safe to hand out.
func (s *StateStore) Snapshot() DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Components = make(map[string]float64, len(s.state.Components))
	for name, pct := range s.state.Components {
		out.Components[name] = pct
	}
	out.CleanLogs = make(map[string]CleanLogEntry, len(s.state.CleanLogs))
	for id, entry := range s.state.CleanLogs {
		out.CleanLogs[id] = entry
	}
	return out
}

// Maps returns the known base maps.
func (s *StateStore) Maps() []MapInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MapInfo(nil), s.maps...)
}

// SpotAreas returns the accumulated named-area catalog for one map. The
// catalog may be partial while reconstruction is still in flight.
func (s *StateStore) SpotAreas(mapID string) []SpotAreaInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpotAreaInfo(nil), s.spotAreas[mapID]...)
}

// Barriers returns the accumulated barrier catalog for one map.
func (s *StateStore) Barriers(mapID string) []BarrierInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]BarrierInfo(nil), s.barriers[mapID]...)
}

// HandleLifeSpan updates one component's remaining-life percentage. The
// event expresses remaining life in one of four mutually exclusive
// shapes; the first matching rule wins. A non-numeric or zero result is
// treated as "no update" so a partially populated event cannot poison
// the lifespan map.
func (s *StateStore) HandleLifeSpan(event Event) {
	raw, ok := event.Attr("type")
	if !ok {
		s.log.Warn("lifespan event without component type")
		return
	}
	// Some models (Deebot M88) pad the component name.
	component, ok := componentFromWire[strings.TrimSpace(raw)]
	if !ok {
		s.log.Warn("unknown component type", zap.String("type", raw))
		return
	}

	value, hasValue := event.AttrFloat("val")
	total, hasTotal := event.AttrFloat("total")
	left, hasLeft := event.AttrFloat("left")

	var lifespan float64
	switch {
	case hasValue && hasTotal && total != 0:
		lifespan = value / total * 100
	case hasValue:
		lifespan = value / 100
	case hasLeft && hasTotal && total != 0:
		lifespan = left / total * 100
	case hasLeft:
		lifespan = left / 60
	}
	if lifespan == 0 {
		s.log.Warn("lifespan event without usable value", zap.String("component", component))
		return
	}

	s.mu.Lock()
	s.state.Components[component] = lifespan
	s.mu.Unlock()
}

// HandleNetInfo copies the reported IP and wifi SSID.
func (s *StateStore) HandleNetInfo(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ip, ok := event.Attr("wi"); ok {
		s.state.Net.IP = ip
	}
	if ssid, ok := event.Attr("s"); ok {
		s.state.Net.WifiSSID = ssid
	}
}

var areaValuesPattern = regexp.MustCompile(`^-?[0-9]+\.?[0-9]*,-?[0-9]+\.?[0-9]*,-?[0-9]+\.?[0-9]*,-?[0-9]+\.?[0-9]*$`)

// HandleCleanReport updates the clean-mode report. A stop or pause
// action overrides the reported mode; the optional "p" attribute carries
// the last used custom-area bounding values.
func (s *StateStore) HandleCleanReport(event Event) {
	mode, hasMode := event.Attr("type")
	if canonical, ok := cleanModeFromWire[mode]; ok {
		mode = canonical
	}

	action := ""
	if st, ok := event.Attr("st"); ok {
		action = cleanActionFromWire[st]
	} else if act, ok := event.Attr("act"); ok {
		action = cleanActionFromWire[act]
	}
	if action == "stop" || action == "pause" {
		mode, hasMode = action, true
	}
	if !hasMode || mode == "" {
		s.log.Warn("clean report without mode", zap.Any("attrs", event.Attrs))
		return
	}

	s.mu.Lock()
	s.state.CleanReport = mode
	s.mu.Unlock()

	if pValues, ok := event.Attr("p"); ok {
		if areaValuesPattern.MatchString(pValues) {
			fields := strings.Split(pValues, ",")
			rounded := make([]string, len(fields))
			for i, field := range fields {
				f, _ := strconv.ParseFloat(field, 64)
				rounded[i] = strconv.FormatFloat(f, 'f', 1, 64)
			}
			s.mu.Lock()
			s.state.LastUsedAreaValues = strings.Join(rounded, ",")
			s.mu.Unlock()
		} else {
			s.log.Warn("invalid last-used area values", zap.String("p", pValues))
		}
	}
}

// HandleCleanSpeed updates the fan speed after table translation.
func (s *StateStore) HandleCleanSpeed(event Event) {
	wire, ok := event.Attr("speed")
	if !ok {
		s.log.Warn("clean speed event without speed attribute")
		return
	}
	speed, ok := fanSpeedFromWire[wire]
	if !ok {
		s.log.Warn("unknown clean speed", zap.String("speed", wire))
		return
	}
	s.mu.Lock()
	s.state.CleanSpeed = speed
	s.mu.Unlock()
}

// HandleBatteryInfo updates the battery level percentage.
func (s *StateStore) HandleBatteryInfo(event Event) {
	power, ok := event.AttrFloat("power")
	if !ok {
		s.log.Warn("battery event without power attribute", zap.Any("attrs", event.Attrs))
		return
	}
	s.mu.Lock()
	s.state.BatteryLevel = power
	s.mu.Unlock()
}

// HandleWaterLevel updates the water level after table translation.
func (s *StateStore) HandleWaterLevel(event Event) {
	wire, ok := event.Attr("v")
	if !ok {
		return
	}
	level, ok := waterLevelFromWire[wire]
	if !ok {
		s.log.Warn("unknown water level", zap.String("v", wire))
		return
	}
	s.mu.Lock()
	s.state.WaterLevel = level
	s.mu.Unlock()
}

// HandleWaterboxInfo records whether the water box is installed.
func (s *StateStore) HandleWaterboxInfo(event Event) {
	if on, ok := event.Attr("on"); ok {
		s.mu.Lock()
		s.state.WaterboxInfo = on
		s.mu.Unlock()
	}
}

// HandleDustcaseInfo records whether the dust box is installed.
func (s *StateStore) HandleDustcaseInfo(event Event) {
	if st, ok := event.Attr("st"); ok {
		s.mu.Lock()
		s.state.DustcaseInfo = st
		s.mu.Unlock()
	}
}

// HandleSleepStatus records the sleep flag.
func (s *StateStore) HandleSleepStatus(event Event) {
	if st, ok := event.Attr("st"); ok {
		s.mu.Lock()
		s.state.SleepStatus = st
		s.mu.Unlock()
	}
}

// HandleChargeState updates the charge status after table translation.
func (s *StateStore) HandleChargeState(event Event) {
	wire, ok := event.Attr("type")
	if !ok || wire == "" {
		s.log.Warn("charge state event without type", zap.Any("attrs", event.Attrs))
		return
	}
	status, ok := chargeModeFromWire[wire]
	if !ok {
		s.log.Warn("unknown charging status", zap.String("type", wire))
		return
	}
	s.mu.Lock()
	s.state.ChargeStatus = status
	s.mu.Unlock()
}

// HandleCleanSum updates the lifetime cleaning totals.
func (s *StateStore) HandleCleanSum(event Event) {
	area, okArea := event.AttrInt("a")
	seconds, okSeconds := event.AttrInt("l")
	count, okCount := event.AttrInt("c")
	if !okArea || !okSeconds || !okCount {
		s.log.Warn("clean sum event missing totals", zap.Any("attrs", event.Attrs))
		return
	}
	s.mu.Lock()
	s.state.CleanSum = CleanSum{SquareMeters: area, Seconds: seconds, Count: count}
	s.mu.Unlock()
}

// HandlePosition updates the device position and resolves which named
// area currently contains it. Malformed events are ignored.
func (s *StateStore) HandlePosition(event Event) {
	x, y, ok := parsePositionPair(event)
	if !ok {
		s.log.Warn("unparseable position event", zap.Any("attrs", event.Attrs))
		return
	}
	angle, _ := event.AttrFloat("a")

	s.mu.Lock()
	defer s.mu.Unlock()
	areaID := areaForPosition(x, y, s.spotAreas[s.state.CurrentMapID])
	s.state.Position = Position{
		X:             x,
		Y:             y,
		Angle:         angle,
		IsInvalid:     false,
		CurrentAreaID: areaID,
		ChangeFlag:    true,
	}
}

// HandleChargePosition updates the docking station position.
func (s *StateStore) HandleChargePosition(event Event) {
	x, y, ok := parsePositionPair(event)
	if !ok {
		s.log.Warn("unparseable charger position event", zap.Any("attrs", event.Attrs))
		return
	}
	angle, _ := event.AttrFloat("a")
	s.mu.Lock()
	s.state.ChargerPosition = ChargerPosition{X: x, Y: y, Angle: angle}
	s.mu.Unlock()
}

func parsePositionPair(event Event) (x, y float64, ok bool) {
	p, hasP := event.Attr("p")
	_, hasA := event.Attr("a")
	if !hasP || !hasA {
		return 0, 0, false
	}
	fields := strings.Split(p, ",")
	if len(fields) < 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// HandleCleanLogs ingests a batch of historical cleaning runs. Two
// payload shapes exist: attribute-style entries keyed s/a/l and
// object-style entries keyed ts/area/last with a vendor-supplied id.
// Entries are upserted by id, so re-ingesting a log is idempotent.
func (s *StateStore) HandleCleanLogs(event Event) {
	count := len(event.Children)
	if declared, ok := event.AttrInt("count"); ok && declared < count {
		count = declared
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < count; i++ {
		child := event.Children[i]
		entry, ok := s.cleanLogEntry(child)
		if !ok {
			s.log.Warn("skipping unparseable clean log entry", zap.Any("attrs", child.Attrs))
			continue
		}
		s.state.CleanLogs[entry.ID] = entry
	}
}

func (s *StateStore) cleanLogEntry(child Event) (CleanLogEntry, bool) {
	var entry CleanLogEntry
	if ts, ok := child.AttrInt("s"); ok {
		// Attribute-style: no vendor id, derive one.
		entry.Timestamp = int64(ts)
		entry.ID = strconv.Itoa(ts) + "@" + s.vacuum.Resource
		entry.SquareMeters, _ = child.AttrInt("a")
		entry.Seconds, _ = child.AttrInt("l")
	} else if ts, ok := child.AttrInt("ts"); ok {
		entry.Timestamp = int64(ts)
		entry.ID, _ = child.Attr("id")
		if entry.ID == "" {
			entry.ID = strconv.Itoa(ts) + "@" + s.vacuum.Resource
		}
		entry.SquareMeters, _ = child.AttrInt("area")
		entry.Seconds, _ = child.AttrInt("last")
		entry.Type, _ = child.Attr("type")
		entry.ImageURL, _ = child.Attr("imageURL")
		entry.StopReason, _ = child.Attr("stopReason")
	} else {
		return CleanLogEntry{}, false
	}
	entry.TotalTime = formatDuration(entry.Seconds)
	return entry, true
}

// formatDuration renders seconds as the display string the app shows.
// Derived convenience value only; Seconds stays authoritative.
func formatDuration(seconds int) string {
	return fmt.Sprintf("%dh %02dm %02ds", seconds/3600, (seconds%3600)/60, seconds%60)
}

// HandleError normalizes a device-reported error into state.
func (s *StateStore) HandleError(event Event) {
	resolved := ResolveError(event, s.errorTable)
	s.mu.Lock()
	s.state.Error = resolved
	s.mu.Unlock()
}

// HandleMap records the active base map and, once per session per map,
// kicks off catalog fetches for both named areas and barriers.
func (s *StateStore) HandleMap(event Event) {
	mapID, ok := event.Attr("i")
	if !ok || mapID == "" {
		s.log.Warn("map event without map id", zap.Any("attrs", event.Attrs))
		return
	}

	s.mu.Lock()
	s.state.CurrentMapID = mapID
	known := false
	for i := range s.maps {
		s.maps[i].Active = s.maps[i].ID == mapID
		if s.maps[i].ID == mapID {
			known = true
		}
	}
	if !known {
		s.maps = append(s.maps, MapInfo{ID: mapID, Index: len(s.maps), Name: "standard", Active: true})
	}
	requested := s.mapSetRequested[mapID]
	s.mapSetRequested[mapID] = true
	s.mu.Unlock()

	if requested {
		return
	}
	s.sendFollowUp(GetMapSet(mapID, "sa"))
	s.sendFollowUp(GetMapSet(mapID, "vw"))
}

// HandleMapSet decodes a catalog event, creates placeholder entries and
// issues one detail fetch per entry. Unrecognized sub-types produce an
// error-tagged result rather than a panic.
func (s *StateStore) HandleMapSet(event Event) MapSetResult {
	subsetType, _ := event.Attr("tp")

	s.mu.Lock()
	mapID := s.state.CurrentMapID
	s.mu.Unlock()
	setID, _ := event.Attr("msid")

	switch subsetType {
	case "sa", "vw":
	default:
		s.log.Warn("unknown mapset type", zap.String("tp", subsetType))
		return MapSetResult{Event: MapsetError}
	}

	result := MapSetResult{MapID: mapID, SetID: setID}
	if subsetType == "sa" {
		result.Event = MapsetSpotAreas
	} else {
		result.Event = MapsetVirtualWalls
	}

	for _, child := range event.Children {
		entryID, ok := child.Attr("mid")
		if !ok {
			continue
		}
		sequence, err := strconv.Atoi(entryID)
		if err != nil {
			s.log.Warn("non-numeric catalog entry id", zap.String("mid", entryID))
			continue
		}
		s.mu.Lock()
		if subsetType == "sa" {
			s.upsertSpotArea(mapID, entryID, nil)
		} else {
			s.upsertBarrier(mapID, entryID, nil)
		}
		s.mu.Unlock()
		result.EntryIDs = append(result.EntryIDs, entryID)
		s.sendFollowUp(PullM(sequence, subsetType, mapID, entryID))
	}
	return result
}

// HandleMapSubset decodes a detail-fetch reply. The reply id is the
// requested sequence offset by a fixed constant; the recovered local id
// selects the catalog the entry belongs to.
func (s *StateStore) HandleMapSubset(event Event) MapSubsetResult {
	offsetID, ok := event.AttrInt("id")
	if !ok {
		s.log.Warn("map subset reply without id", zap.Any("attrs", event.Attrs))
		return MapSubsetResult{Event: MapsetError}
	}
	geometry, _ := event.Attr("m")

	localID, kind := classifyDetailID(offsetID)
	s.mu.Lock()
	defer s.mu.Unlock()
	mapID := s.state.CurrentMapID
	id := strconv.Itoa(localID)

	switch kind {
	case MapsubsetSpotArea:
		area := s.upsertSpotArea(mapID, id, &geometry)
		return MapSubsetResult{Event: MapsubsetSpotArea, Area: area}
	case MapsubsetVirtualWall:
		barrier := s.upsertBarrier(mapID, id, &geometry)
		return MapSubsetResult{Event: MapsubsetVirtualWall, Barrier: barrier}
	default:
		s.log.Warn("map subset id outside known ranges", zap.Int("id", localID))
		return MapSubsetResult{Event: MapsetError}
	}
}

// upsertSpotArea creates or updates the catalog entry for localID.
// Caller holds the lock. Detail replies never carry connector metadata,
// so Connections stays empty.
func (s *StateStore) upsertSpotArea(mapID, localID string, geometry *string) *SpotAreaInfo {
	areas := s.spotAreas[mapID]
	for i := range areas {
		if areas[i].LocalID == localID {
			if geometry != nil {
				areas[i].Boundaries = *geometry
			}
			copied := areas[i]
			return &copied
		}
	}
	area := SpotAreaInfo{MapID: mapID, LocalID: localID, SubType: "0"}
	if geometry != nil {
		area.Boundaries = *geometry
	}
	s.spotAreas[mapID] = append(areas, area)
	return &area
}

func (s *StateStore) upsertBarrier(mapID, localID string, geometry *string) *BarrierInfo {
	barriers := s.barriers[mapID]
	for i := range barriers {
		if barriers[i].LocalID == localID {
			if geometry != nil {
				barriers[i].Coordinates = *geometry
			}
			copied := barriers[i]
			return &copied
		}
	}
	barrier := BarrierInfo{MapID: mapID, LocalID: localID}
	if geometry != nil {
		barrier.Coordinates = *geometry
	}
	s.barriers[mapID] = append(barriers, barrier)
	return &barrier
}

func (s *StateStore) sendFollowUp(cmd Command) {
	if s.sender == nil {
		return
	}
	if err := s.sender.SendCommand(cmd); err != nil {
		s.log.Warn("map follow-up command failed", zap.String("command", cmd.Name), zap.Error(err))
	}
}
