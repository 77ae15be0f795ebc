package deebot

import (
	"testing"
)

type recordingSender struct {
	commands []Command
}

func (r *recordingSender) SendCommand(cmd Command) error {
	r.commands = append(r.commands, cmd)
	return nil
}

func testVacuum() Vacuum {
	return Vacuum{DID: "E0001234567890", Class: "ls1ok3", Resource: "atom", Company: "eco-ng"}
}

func newTestStore(t *testing.T) (*StateStore, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	return NewStateStore(testVacuum(), ErrorCodes, sender, nil), sender
}

func attrEvent(name string, attrs map[string]string) Event {
	return Event{Name: name, Attrs: attrs}
}

func TestHandleLifeSpanShapes(t *testing.T) {
	cases := []struct {
		name  string
		attrs map[string]string
		want  float64
	}{
		{"val and total", map[string]string{"type": "brush", "val": "50", "total": "200"}, 25},
		{"val only", map[string]string{"type": "brush", "val": "5000"}, 50},
		{"left and total", map[string]string{"type": "sideBrush", "left": "30", "total": "120"}, 25},
		{"left only", map[string]string{"type": "heap", "left": "120"}, 2},
	}
	for _, tc := range cases {
		store, _ := newTestStore(t)
		store.HandleLifeSpan(attrEvent(EventLifeSpan, tc.attrs))
		snapshot := store.Snapshot()
		component := componentFromWire[tc.attrs["type"]]
		if got := snapshot.Components[component]; got != tc.want {
			t.Fatalf("%s: lifespan = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHandleLifeSpanPaddedType(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleLifeSpan(attrEvent(EventLifeSpan, map[string]string{"type": " brush ", "val": "5000"}))
	if got := store.Snapshot().Components["main_brush"]; got != 50 {
		t.Fatalf("padded component type not handled: %v", got)
	}
}

func TestHandleLifeSpanNoUsableValue(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleLifeSpan(attrEvent(EventLifeSpan, map[string]string{"type": "brush", "val": "5000"}))

	// A later event without a usable value must not clobber the entry.
	store.HandleLifeSpan(attrEvent(EventLifeSpan, map[string]string{"type": "brush"}))
	store.HandleLifeSpan(attrEvent(EventLifeSpan, map[string]string{"type": "brush", "val": "junk"}))
	if got := store.Snapshot().Components["main_brush"]; got != 50 {
		t.Fatalf("lifespan clobbered by unusable event: %v", got)
	}

	// Unknown component types are ignored entirely.
	store.HandleLifeSpan(attrEvent(EventLifeSpan, map[string]string{"type": "turbine", "val": "5000"}))
	if _, ok := store.Snapshot().Components["turbine"]; ok {
		t.Fatalf("unknown component must not be recorded")
	}
}

func TestHandleCleanReport(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleCleanReport(attrEvent(EventCleanReport, map[string]string{"type": "goCharging"}))
	if got := store.Snapshot().CleanReport; got != "returning" {
		t.Fatalf("clean report = %q, want returning", got)
	}

	// A pause action overrides the reported mode.
	store.HandleCleanReport(attrEvent(EventCleanReport, map[string]string{"type": "auto", "st": "p"}))
	if got := store.Snapshot().CleanReport; got != "pause" {
		t.Fatalf("clean report = %q, want pause", got)
	}
}

func TestHandleCleanReportAreaValues(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleCleanReport(attrEvent(EventCleanReport, map[string]string{
		"type": "customArea", "p": "-1558.75,-600.25,549,500.5",
	}))
	snapshot := store.Snapshot()
	if snapshot.CleanReport != "custom_area" {
		t.Fatalf("clean report = %q", snapshot.CleanReport)
	}
	if snapshot.LastUsedAreaValues != "-1558.8,-600.2,549.0,500.5" {
		t.Fatalf("area values = %q", snapshot.LastUsedAreaValues)
	}

	// Malformed descriptors leave the last good value in place.
	store.HandleCleanReport(attrEvent(EventCleanReport, map[string]string{
		"type": "customArea", "p": "one,two,three,four",
	}))
	if got := store.Snapshot().LastUsedAreaValues; got != "-1558.8,-600.2,549.0,500.5" {
		t.Fatalf("area values clobbered: %q", got)
	}
}

func TestHandleCleanSumRequiresAllTotals(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleCleanSum(attrEvent(EventCleanSum, map[string]string{"a": "720", "l": "86400", "c": "60"}))
	if got := store.Snapshot().CleanSum; got != (CleanSum{SquareMeters: 720, Seconds: 86400, Count: 60}) {
		t.Fatalf("unexpected clean sum: %+v", got)
	}

	store.HandleCleanSum(attrEvent(EventCleanSum, map[string]string{"a": "999"}))
	if got := store.Snapshot().CleanSum.SquareMeters; got != 720 {
		t.Fatalf("partial event must not update totals: %d", got)
	}
}

func TestHandleCleanLogs(t *testing.T) {
	store, _ := newTestStore(t)
	event := Event{
		Name:  EventCleanLogs,
		Attrs: map[string]string{"count": "2"},
		Children: []Event{
			{Attrs: map[string]string{"s": "1550000000", "a": "25", "l": "1800"}},
			{Attrs: map[string]string{"ts": "1550001000", "id": "log-abc", "area": "30", "last": "3725", "type": "auto"}},
		},
	}
	store.HandleCleanLogs(event)
	logs := store.Snapshot().CleanLogs
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}

	derived, ok := logs["1550000000@atom"]
	if !ok {
		t.Fatalf("attribute-style entry missing derived id: %v", logs)
	}
	if derived.SquareMeters != 25 || derived.Seconds != 1800 {
		t.Fatalf("unexpected derived entry: %+v", derived)
	}

	vendor := logs["log-abc"]
	if vendor.TotalTime != "1h 02m 05s" {
		t.Fatalf("unexpected total time: %q", vendor.TotalTime)
	}

	// Re-ingesting the same batch is idempotent.
	store.HandleCleanLogs(event)
	if got := len(store.Snapshot().CleanLogs); got != 2 {
		t.Fatalf("re-ingest changed entry count: %d", got)
	}
}

func TestHandleCleanLogsCountCap(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleCleanLogs(Event{
		Name:  EventCleanLogs,
		Attrs: map[string]string{"count": "1"},
		Children: []Event{
			{Attrs: map[string]string{"s": "100", "a": "1", "l": "60"}},
			{Attrs: map[string]string{"s": "200", "a": "2", "l": "60"}},
		},
	})
	if got := len(store.Snapshot().CleanLogs); got != 1 {
		t.Fatalf("declared count must cap ingestion, got %d entries", got)
	}
}

func TestHandleErrorUpdatesState(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandleError(attrEvent(EventError, map[string]string{"errno": "105"}))
	state := store.Snapshot().Error
	if state.Code != "105" {
		t.Fatalf("unexpected error code: %q", state.Code)
	}
	if state.Description == "" {
		t.Fatalf("known code must carry a description")
	}

	store.HandleError(attrEvent(EventError, map[string]string{"new": "", "old": "105"}))
	if got := store.Snapshot().Error.Code; got != "0" {
		t.Fatalf("cleared error not recorded: %q", got)
	}
}

func TestMapReconstructionFlow(t *testing.T) {
	store, sender := newTestStore(t)

	store.HandleMap(attrEvent(EventMap, map[string]string{"i": "1077"}))
	if len(sender.commands) != 2 {
		t.Fatalf("expected 2 catalog fetches, got %d", len(sender.commands))
	}
	if sender.commands[0].Name != "getMapSet" || sender.commands[1].Name != "getMapSet" {
		t.Fatalf("unexpected follow-up commands: %v", sender.commands)
	}

	// A repeated map announcement must not refetch the catalogs.
	store.HandleMap(attrEvent(EventMap, map[string]string{"i": "1077"}))
	if len(sender.commands) != 2 {
		t.Fatalf("catalog refetched on repeated map event")
	}

	maps := store.Maps()
	if len(maps) != 1 || maps[0].ID != "1077" || !maps[0].Active {
		t.Fatalf("unexpected map catalog: %+v", maps)
	}

	result := store.HandleMapSet(Event{
		Name:  EventMapSet,
		Attrs: map[string]string{"tp": "sa", "msid": "8"},
		Children: []Event{
			{Attrs: map[string]string{"mid": "3"}},
			{Attrs: map[string]string{"mid": "5"}},
		},
	})
	if result.Event != MapsetSpotAreas {
		t.Fatalf("unexpected mapset event: %s", result.Event)
	}
	if len(result.EntryIDs) != 2 {
		t.Fatalf("unexpected entry ids: %v", result.EntryIDs)
	}
	if len(sender.commands) != 4 {
		t.Fatalf("expected one detail fetch per entry, got %d commands", len(sender.commands))
	}
	if sender.commands[2].Name != "pullM" {
		t.Fatalf("unexpected detail command: %s", sender.commands[2].Name)
	}

	subset := store.HandleMapSubset(attrEvent(EventMapSubset, map[string]string{
		"id": "999999903",
		"m":  "0,0;10,0;10,10;0,10",
	}))
	if subset.Event != MapsubsetSpotArea || subset.Area == nil {
		t.Fatalf("unexpected subset result: %+v", subset)
	}
	if subset.Area.LocalID != "3" {
		t.Fatalf("offset id not recovered: %s", subset.Area.LocalID)
	}

	areas := store.SpotAreas("1077")
	var withGeometry int
	for _, area := range areas {
		if area.Boundaries != "" {
			withGeometry++
		}
	}
	if len(areas) != 2 || withGeometry != 1 {
		t.Fatalf("unexpected area catalog: %+v", areas)
	}

	// Position containment resolves against the populated catalog.
	store.HandlePosition(attrEvent(EventPosition, map[string]string{"p": "5,5", "a": "0"}))
	if got := store.Snapshot().Position.CurrentAreaID; got != "3" {
		t.Fatalf("position not resolved into area: %q", got)
	}
	store.HandlePosition(attrEvent(EventPosition, map[string]string{"p": "50,50", "a": "0"}))
	pos := store.Snapshot().Position
	if pos.CurrentAreaID != UnknownArea {
		t.Fatalf("outside position resolved to %q", pos.CurrentAreaID)
	}
	if !pos.ChangeFlag {
		t.Fatalf("accepted position must set the change flag")
	}
}

func TestHandleMapSetUnknownType(t *testing.T) {
	store, sender := newTestStore(t)
	result := store.HandleMapSet(attrEvent(EventMapSet, map[string]string{"tp": "xy"}))
	if result.Event != MapsetError {
		t.Fatalf("unknown subset type must produce an error result, got %s", result.Event)
	}
	if len(sender.commands) != 0 {
		t.Fatalf("error result must not trigger detail fetches")
	}
}

func TestHandleMapSubsetOutOfRange(t *testing.T) {
	store, _ := newTestStore(t)
	result := store.HandleMapSubset(attrEvent(EventMapSubset, map[string]string{"id": "999999980"}))
	if result.Event != MapsetError {
		t.Fatalf("id outside catalog ranges must produce an error result, got %s", result.Event)
	}
}

func TestHandlePositionMalformed(t *testing.T) {
	store, _ := newTestStore(t)
	store.HandlePosition(attrEvent(EventPosition, map[string]string{"p": "junk", "a": "0"}))
	pos := store.Snapshot().Position
	if pos.ChangeFlag {
		t.Fatalf("malformed position must not be accepted")
	}
	if pos.CurrentAreaID != UnknownArea {
		t.Fatalf("initial area id must stay %q, got %q", UnknownArea, pos.CurrentAreaID)
	}
}
