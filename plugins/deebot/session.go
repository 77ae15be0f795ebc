package deebot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// keepaliveInterval is how often the session pings the device while
// connected.
const keepaliveInterval = 30 * time.Second

// verbFunc encodes one canonical verb into the commands it sends.
type verbFunc func(args ...any) ([]Command, error)

// Session binds one device to a transport for its lifetime. It owns the
// canonical DeviceState, dispatches incoming events to the state store
// one at a time, runs the keepalive, and emits named signals consumers
// can subscribe to. State is discarded with the session.
type Session struct {
	vacuum    Vacuum
	transport Transport
	caps      Capabilities
	store     *StateStore
	log       *zap.Logger
	verbs     map[string]verbFunc

	// dispatchMu serializes handler invocations so no handler observes
	// a half-updated state from another.
	dispatchMu sync.Mutex

	mu            sync.Mutex
	listeners     map[string][]func(any)
	keepaliveStop chan struct{}
	connected     bool
}

// NewSession wires a session for one vacuum. A nil caps table falls back
// to the built-in device table; nil table and logger fall back the same
// way as NewStateStore.
func NewSession(vacuum Vacuum, transport Transport, caps Capabilities, table ErrorDescriber, log *zap.Logger) (*Session, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if caps == nil {
		caps = SupportedDevices
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Session{
		vacuum:    vacuum,
		transport: transport,
		caps:      caps,
		log:       log,
		listeners: make(map[string][]func(any)),
	}
	s.store = NewStateStore(vacuum, table, s, log)

	verbs, err := buildVerbRegistry(s)
	if err != nil {
		return nil, err
	}
	s.verbs = verbs

	for _, name := range subscribedEvents {
		name := name
		if err := transport.Subscribe(name, func(event Event) {
			s.handleEvent(name, event)
		}); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", name, err)
		}
	}
	return s, nil
}

// State returns a copy of the canonical device state.
func (s *Session) State() DeviceState {
	return s.store.Snapshot()
}

// Store exposes the state store for catalog queries.
func (s *Session) Store() *StateStore {
	return s.store
}

// Vacuum returns the device this session is bound to.
func (s *Session) Vacuum() Vacuum {
	return s.vacuum
}

// HasCapability reports whether this device offers an optional feature.
func (s *Session) HasCapability(property string) bool {
	return s.caps.Has(s.vacuum.Class, property)
}

// On subscribes a consumer to a named signal. Handlers run on the
// dispatch goroutine and must not block.
func (s *Session) On(name string, handler func(any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[name] = append(s.listeners[name], handler)
}

func (s *Session) emit(name string, value any) {
	s.mu.Lock()
	handlers := append(([]func(any))(nil), s.listeners[name]...)
	s.mu.Unlock()
	for _, handler := range handlers {
		handler(value)
	}
}

// SendCommand serializes one command to the device. Fire-and-forget:
// replies come back as events, paired only by the echoed request id.
func (s *Session) SendCommand(cmd Command) error {
	s.log.Debug("sending command", zap.String("name", cmd.Name), zap.String("id", cmd.ID))
	return s.transport.SendCommand(cmd, s.vacuum.Address())
}

// Connect establishes the transport session, emits the ready signal and
// starts the keepalive loop.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.transport.ConnectAndWaitUntilReady(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	s.mu.Lock()
	s.connected = true
	s.keepaliveStop = make(chan struct{})
	stop := s.keepaliveStop
	s.mu.Unlock()

	go s.keepaliveLoop(stop)
	s.emit(SignalReady, s.vacuum)
	return nil
}

// Disconnect cancels the keepalive and tears down the transport. Any
// in-flight map reconstruction simply stops advancing; partially
// populated catalogs are stale from here on.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.keepaliveStop != nil {
		close(s.keepaliveStop)
		s.keepaliveStop = nil
	}
	s.connected = false
	s.mu.Unlock()
	return s.transport.Disconnect()
}

func (s *Session) keepaliveLoop(stop chan struct{}) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.transport.SendKeepalive(s.vacuum.Address()); err != nil {
				s.log.Error("keepalive failed", zap.Error(err))
				s.emit(SignalKeepaliveFailed, err)
			}
		}
	}
}

// handleEvent routes one decoded event to its handler. Handlers run to
// completion before the next event is processed.
func (s *Session) handleEvent(name string, event Event) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	switch name {
	case EventCleanReport:
		s.store.HandleCleanReport(event)
		s.emit(name, s.store.Snapshot().CleanReport)
	case EventCleanSpeed:
		s.store.HandleCleanSpeed(event)
		s.emit(name, s.store.Snapshot().CleanSpeed)
	case EventChargeState:
		s.store.HandleChargeState(event)
		s.emit(name, s.store.Snapshot().ChargeStatus)
	case EventBatteryInfo:
		s.store.HandleBatteryInfo(event)
		s.emit(name, s.store.Snapshot().BatteryLevel)
	case EventLifeSpan:
		s.store.HandleLifeSpan(event)
		s.emit(name, s.store.Snapshot().Components)
	case EventWaterLevel:
		s.store.HandleWaterLevel(event)
		s.emit(name, s.store.Snapshot().WaterLevel)
	case EventWaterBoxInfo:
		s.store.HandleWaterboxInfo(event)
		s.emit(name, s.store.Snapshot().WaterboxInfo)
	case EventDustCaseInfo:
		s.store.HandleDustcaseInfo(event)
		s.emit(name, s.store.Snapshot().DustcaseInfo)
	case EventSleepStatus:
		s.store.HandleSleepStatus(event)
		s.emit(name, s.store.Snapshot().SleepStatus)
	case EventNetInfo:
		s.store.HandleNetInfo(event)
		s.emit(name, s.store.Snapshot().Net)
	case EventCleanSum:
		s.store.HandleCleanSum(event)
		s.emit(name, s.store.Snapshot().CleanSum)
	case EventCleanLogs:
		s.store.HandleCleanLogs(event)
		s.emit(name, s.store.Snapshot().CleanLogs)
	case EventPosition:
		s.store.HandlePosition(event)
		s.emit(name, s.store.Snapshot().Position)
	case EventChargePosition:
		s.store.HandleChargePosition(event)
		s.emit(name, s.store.Snapshot().ChargerPosition)
	case EventMap:
		s.store.HandleMap(event)
		s.emit(name, s.store.Maps())
	case EventMapSet:
		result := s.store.HandleMapSet(event)
		s.emit(name, result)
	case EventMapSubset:
		result := s.store.HandleMapSubset(event)
		s.emit(name, result)
	case EventError:
		s.store.HandleError(event)
		s.emit(name, s.store.Snapshot().Error)
	default:
		s.log.Warn("event without handler", zap.String("event", name))
	}
}

// Run encodes a canonical verb and sends the resulting commands. Verbs
// are matched case-insensitively; unknown verbs are rejected.
func (s *Session) Run(verb string, args ...any) error {
	fn, ok := s.verbs[strings.ToLower(verb)]
	if !ok {
		return fmt.Errorf("unknown verb %q", verb)
	}
	commands, err := fn(args...)
	if err != nil {
		return err
	}
	for _, cmd := range commands {
		if err := s.SendCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

// buildVerbRegistry maps every canonical verb to its encoder. The
// registry is checked for nil entries at construction so a broken verb
// is a startup failure, not a silently ignored case.
func buildVerbRegistry(s *Session) (map[string]verbFunc, error) {
	one := func(cmd Command) ([]Command, error) { return []Command{cmd}, nil }

	registry := map[string]verbFunc{
		"clean": func(args ...any) ([]Command, error) {
			mode, action := "auto", "start"
			if len(args) > 0 {
				mode, _ = argString(args, 0)
			}
			if len(args) > 1 {
				action, _ = argString(args, 1)
			}
			return one(Clean(mode, action, nil))
		},
		"edge": func(...any) ([]Command, error) { return one(Edge()) },
		"spot": func(...any) ([]Command, error) { return one(Spot()) },
		"spotarea": func(args ...any) ([]Command, error) {
			if !s.HasCapability(CapSpotArea) {
				return nil, fmt.Errorf("device class %q does not support spot areas", s.vacuum.Class)
			}
			action, area, count, err := areaArgs(args)
			if err != nil {
				return nil, err
			}
			cmd, err := SpotArea(action, area, count)
			if err != nil {
				return nil, err
			}
			return one(cmd)
		},
		"customarea": func(args ...any) ([]Command, error) {
			if !s.HasCapability(CapCustomArea) {
				return nil, fmt.Errorf("device class %q does not support custom areas", s.vacuum.Class)
			}
			action, area, count, err := areaArgs(args)
			if err != nil {
				return nil, err
			}
			cmd, err := CustomArea(action, area, count)
			if err != nil {
				return nil, err
			}
			return one(cmd)
		},
		"stop":   func(...any) ([]Command, error) { return one(Stop()) },
		"pause":  func(...any) ([]Command, error) { return one(Pause()) },
		"resume": func(...any) ([]Command, error) { return one(Resume()) },
		"charge": func(...any) ([]Command, error) { return one(Charge()) },
		"playsound": func(args ...any) ([]Command, error) {
			if len(args) == 0 {
				return one(PlaySound(0))
			}
			return one(PlaySound(args[0]))
		},
		"getdeviceinfo":   func(...any) ([]Command, error) { return one(GetDeviceInfo()) },
		"getcleanstate":   func(...any) ([]Command, error) { return one(GetCleanState()) },
		"getcleanspeed":   func(...any) ([]Command, error) { return one(GetCleanSpeed()) },
		"getchargestate":  func(...any) ([]Command, error) { return one(GetChargeState()) },
		"getbatterystate": func(...any) ([]Command, error) { return one(GetBatteryState()) },
		"setcleanspeed": func(args ...any) ([]Command, error) {
			level, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("setcleanspeed requires a level")
			}
			return one(SetCleanSpeed(level))
		},
		"getlifespan": func(args ...any) ([]Command, error) {
			component, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("getlifespan requires a component")
			}
			return one(GetLifeSpan(component))
		},
		"getwaterlevel": func(...any) ([]Command, error) { return one(GetWaterLevel()) },
		"setwaterlevel": func(args ...any) ([]Command, error) {
			level, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("setwaterlevel requires a level")
			}
			return one(SetWaterLevel(level))
		},
		"getwaterboxinfo":    func(...any) ([]Command, error) { return one(GetWaterBoxInfo()) },
		"getfirmwareversion": func(...any) ([]Command, error) { return one(GetFirmwareVersion()) },
		"getnetinfo":         func(...any) ([]Command, error) { return one(GetNetInfo()) },
		"getposition":        func(...any) ([]Command, error) { return one(GetPosition()) },
		"getsleepstatus":     func(...any) ([]Command, error) { return one(GetSleepStatus()) },
		"getcleansum":        func(...any) ([]Command, error) { return one(GetCleanSum()) },
		"getmaps":            func(...any) ([]Command, error) { return one(GetMaps()) },
		"getmapset": func(...any) ([]Command, error) {
			mapID := s.store.Snapshot().CurrentMapID
			return []Command{GetMapSet(mapID, "sa"), GetMapSet(mapID, "vw")}, nil
		},
		"pullm": func(args ...any) ([]Command, error) {
			if len(args) < 4 {
				return nil, fmt.Errorf("pullm requires sequence, type, map id and entry id")
			}
			sequence := coerceCount(args[0])
			subsetType, _ := argString(args, 1)
			mapID, _ := argString(args, 2)
			entryID, _ := argString(args, 3)
			return one(PullM(sequence, subsetType, mapID, entryID))
		},
		"pullmp": func(args ...any) ([]Command, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("pullmp requires a piece index")
			}
			return one(PullMP(coerceCount(args[0])))
		},
		"getcleanlogs": func(args ...any) ([]Command, error) {
			count := 0
			if len(args) > 0 {
				count = coerceCount(args[0])
			}
			return one(GetCleanLogs(count))
		},
		"settime": func(args ...any) ([]Command, error) {
			if len(args) < 2 {
				return nil, fmt.Errorf("settime requires a timestamp and timezone")
			}
			timestamp := int64(coerceCount(args[0]))
			timezone, _ := argString(args, 1)
			return one(SetTime(timestamp, timezone))
		},
		"move": func(args ...any) ([]Command, error) {
			direction, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("move requires a direction")
			}
			cmd, err := Move(direction)
			if err != nil {
				return nil, err
			}
			return one(cmd)
		},
	}

	// Aliases kept for parity with the app vocabulary.
	registry["deviceinfo"] = registry["getdeviceinfo"]
	registry["cleanstate"] = registry["getcleanstate"]
	registry["cleanspeed"] = registry["getcleanspeed"]
	registry["chargestate"] = registry["getchargestate"]
	registry["batterystate"] = registry["getbatterystate"]
	registry["lifespan"] = registry["getlifespan"]
	registry["getpos"] = registry["getposition"]
	registry["getchargerposition"] = registry["getposition"]

	for verb, fn := range registry {
		if fn == nil {
			return nil, fmt.Errorf("verb %q has no encoder", verb)
		}
	}
	return registry, nil
}

func argString(args []any, index int) (string, bool) {
	if index >= len(args) {
		return "", false
	}
	value, ok := args[index].(string)
	return value, ok
}

func areaArgs(args []any) (action, area string, count any, err error) {
	if len(args) < 2 {
		return "", "", nil, fmt.Errorf("area cleaning requires an action and an area descriptor")
	}
	action, _ = argString(args, 0)
	area, _ = argString(args, 1)
	if len(args) > 2 {
		count = args[2]
	}
	return action, area, count, nil
}
