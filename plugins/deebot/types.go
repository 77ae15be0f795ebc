package deebot

// Vacuum identifies one device within the vendor account.
type Vacuum struct {
	DID      string `json:"did"`
	Class    string `json:"class"`
	Resource string `json:"resource"`
	Company  string `json:"company"`
	Nickname string `json:"nickname,omitempty"`
}

// UsesMQTT reports whether the device speaks the broker-based protocol
// rather than the legacy presence-based one.
func (v Vacuum) UsesMQTT() bool {
	return v.Company == "eco-ng"
}

// Address returns the device address the transport expects. Legacy
// presence devices are addressed by JID, broker devices by device id.
func (v Vacuum) Address() string {
	if v.UsesMQTT() {
		return v.DID
	}
	return v.DID + "@" + v.Class + ".ecorobot.net/atom"
}

// Position is the last reported device position. ChangeFlag is set on
// every accepted position sample; clearing it is owned by the consumer.
type Position struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Angle         float64 `json:"angle"`
	IsInvalid     bool    `json:"is_invalid"`
	CurrentAreaID string  `json:"current_area_id"`
	ChangeFlag    bool    `json:"change_flag"`
}

// ChargerPosition is the last reported docking station position.
type ChargerPosition struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// CleanLogEntry is one historical cleaning run, keyed by ID.
type CleanLogEntry struct {
	ID           string `json:"id"`
	Timestamp    int64  `json:"timestamp"`
	SquareMeters int    `json:"square_meters"`
	Seconds      int    `json:"seconds"`
	TotalTime    string `json:"total_time"`
	ImageURL     string `json:"image_url,omitempty"`
	Type         string `json:"type,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
}

// ErrorState is the normalized device error. Code "0" means no error.
type ErrorState struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CleanSum holds the device's lifetime cleaning totals.
type CleanSum struct {
	SquareMeters int `json:"square_meters"`
	Seconds      int `json:"seconds"`
	Count        int `json:"count"`
}

// NetInfo holds the device's reported network details.
type NetInfo struct {
	IP       string `json:"ip,omitempty"`
	WifiSSID string `json:"wifi_ssid,omitempty"`
}

// DeviceState is the canonical snapshot of device status. All fields are
// last-write-wins: an event updates only the fields it carries.
type DeviceState struct {
	CleanReport        string                   `json:"clean_report"`
	LastUsedAreaValues string                   `json:"last_used_area_values,omitempty"`
	ChargeStatus       string                   `json:"charge_status"`
	CleanSpeed         string                   `json:"clean_speed"`
	BatteryLevel       float64                  `json:"battery_level"`
	WaterLevel         string                   `json:"water_level"`
	SleepStatus        string                   `json:"sleep_status"`
	DustcaseInfo       string                   `json:"dustcase_info"`
	WaterboxInfo       string                   `json:"waterbox_info"`
	Components         map[string]float64       `json:"components"`
	Net                NetInfo                  `json:"net"`
	CleanSum           CleanSum                 `json:"clean_sum"`
	Position           Position                 `json:"position"`
	ChargerPosition    ChargerPosition          `json:"charger_position"`
	CurrentMapID       string                   `json:"current_map_id"`
	CleanLogs          map[string]CleanLogEntry `json:"clean_logs"`
	Error              ErrorState               `json:"error"`
}
