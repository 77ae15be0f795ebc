package deebot

import (
	_ "embed"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	configv1 "github.com/hausware/deebot/internal/config"
	"github.com/hausware/deebot/internal/core"
)

//go:embed dashboard.json
var dashboardJSON []byte

// Plugin implements the deebotd plugin contract.
type Plugin struct {
	session       *Session
	health        core.HealthStatus
	healthMessage string
}

// NewPlugin constructs a Deebot plugin from config. A nil section means
// the plugin is not enabled for this deployment.
func NewPlugin(cfg *configv1.DeebotConfig, log *zap.Logger) (Plugin, bool) {
	if cfg == nil {
		return Plugin{}, false
	}

	runtimeCfg, err := ConfigFromFile(cfg)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	transport, err := NewMQTTTransport(runtimeCfg.MQTT, runtimeCfg.Vacuum, log)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	session, err := NewSession(runtimeCfg.Vacuum, transport, SupportedDevices, ErrorCodes, log)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	return Plugin{session: session, health: core.HealthHealthy}, true
}

// Session exposes the device session so the daemon can connect it.
func (p Plugin) Session() *Session {
	return p.session
}

func (p Plugin) ID() string {
	return "deebot"
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "deebot",
		DisplayName: "Deebot",
		Version:     "0.1.0",
		Endpoints:   []string{stateEndpoint, commandEndpoint},
	}
}

func (p Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "deebot-overview", JSON: dashboardJSON}}
}

func (p Plugin) Collectors() []prometheus.Collector {
	if p.session == nil {
		return nil
	}
	return []prometheus.Collector{NewMetricsCollector(p.session)}
}

func (p Plugin) Health() core.HealthStatus {
	return p.health
}

func (p Plugin) HealthMessage() string {
	return p.healthMessage
}
