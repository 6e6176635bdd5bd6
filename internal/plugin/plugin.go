// Package plugin holds the OpenAQ polling plugin and the runtime that drives
// its callbacks.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"hemtjan.st/openaq/internal/airquality"
	"hemtjan.st/openaq/internal/openaq"
)

// Config is everything the plugin needs before its first cycle.
type Config struct {
	Latitude  float64
	Longitude float64
	RadiusKm  int
	Limit     int
	APIKey    string
	// Credential is consulted on every due heartbeat while APIKey is empty.
	Credential func() string

	Interval  time.Duration
	Heartbeat time.Duration
}

// Plugin polls OpenAQ and publishes the results. All methods are expected to
// be called from a single goroutine.
type Plugin struct {
	cfg      Config
	specs    []airquality.PollutantSpec
	registry Registry
	logger   *slog.Logger

	conn     Conn
	query    openaq.Query
	runAgain int
	cycle    string

	latest    airquality.LatestReadings
	alert     airquality.AlertState
	published map[string]DeviceUpdate
	reported  map[string]bool
}

func New(cfg Config, registry Registry, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plugin{
		cfg:       cfg,
		specs:     airquality.Pollutants,
		registry:  registry,
		logger:    logger,
		published: map[string]DeviceUpdate{},
		reported:  map[string]bool{},
	}
}

// OnStart validates the configuration and prepares the query. A returned
// error is fatal.
func (p *Plugin) OnStart(ctx context.Context, conn Conn) error {
	if err := validateLocation(p.cfg.Latitude, p.cfg.Longitude); err != nil {
		p.logger.Error("unable to parse coordinates", "error", err)
		return err
	}
	if p.cfg.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %v", p.cfg.Heartbeat)
	}
	if p.cfg.Interval < p.cfg.Heartbeat {
		return fmt.Errorf("interval %v must not be shorter than heartbeat %v", p.cfg.Interval, p.cfg.Heartbeat)
	}

	p.conn = conn
	p.query = openaq.Query{
		Latitude:  p.cfg.Latitude,
		Longitude: p.cfg.Longitude,
		RadiusM:   openaq.RadiusFromKm(p.cfg.RadiusKm),
		Limit:     p.cfg.Limit,
		APIKey:    p.cfg.APIKey,
	}
	p.runAgain = 0
	p.cycle = ""
	p.reset()

	p.logger.Debug("plugin started",
		"latitude", p.query.Latitude,
		"longitude", p.query.Longitude,
		"radius_m", p.query.RadiusM,
		"limit", p.query.Limit,
		"interval", p.cfg.Interval,
		"heartbeat", p.cfg.Heartbeat,
		"credential_set", p.query.APIKey != "",
	)
	return nil
}

func (p *Plugin) OnStop() {
	p.logger.Debug("plugin stopped")
	p.reset()
}

func (p *Plugin) reset() {
	p.latest = nil
	p.alert = airquality.AlertState{}
	p.published = map[string]DeviceUpdate{}
}

func (p *Plugin) heartbeatsPerCycle() int {
	n := int(p.cfg.Interval / p.cfg.Heartbeat)
	if n < 1 {
		return 1
	}
	return n
}

// OnHeartbeat counts down and starts a new polling cycle when due.
func (p *Plugin) OnHeartbeat(ctx context.Context) {
	p.runAgain--
	if p.runAgain > 0 {
		p.logger.Debug("heartbeat", "run_again", p.runAgain)
		return
	}
	p.runAgain = p.heartbeatsPerCycle()

	if p.query.APIKey == "" && p.cfg.Credential != nil {
		p.query.APIKey = p.cfg.Credential()
	}
	if p.query.APIKey == "" {
		p.reportOnce(p.logger, "credential", openaq.ErrMissingCredential)
		return
	}
	p.clearReport("credential")

	cycle := uuid.NewString()
	if !p.conn.Send(ctx, cycle, p.query) {
		p.logger.Warn("previous request still in flight, skipping cycle", "cycle", p.cycle)
		return
	}
	p.cycle = cycle
	p.logger.Debug("requested latest measurements", "cycle", cycle)
}

// OnMessage handles the reply of a polling request.
func (p *Plugin) OnMessage(ctx context.Context, msg Message) {
	log := p.logger.With("cycle", msg.Cycle)

	if msg.Err != nil {
		if errors.Is(msg.Err, openaq.ErrMissingCredential) {
			p.reportOnce(log, "credential", msg.Err)
			return
		}
		log.Warn("failed to fetch data from API", "error", msg.Err)
		return
	}
	if !msg.Reply.OK() {
		status := 0
		if msg.Reply != nil {
			status = msg.Reply.StatusCode
		}
		log.Warn("API returned unexpected status", "status", status, "text", http.StatusText(status))
		return
	}

	resp, err := openaq.Decode(msg.Reply.Body)
	if err != nil {
		p.reportOnce(log, "decode", err)
		return
	}
	p.clearReport("decode")

	latest, sum := airquality.Reduce(resp, p.specs)
	p.latest = latest
	p.alert = airquality.Classify(latest, p.specs)

	log.Info("processed latest measurements",
		"stations", sum.Stations,
		"measurements", sum.Measurements,
		"pollutants", len(latest),
		"tier", int(p.alert.Tier),
		"alert", p.alert.Text(),
	)

	for _, u := range Updates(p.specs, latest, sum, p.alert) {
		p.publish(log, u)
	}
}

// Alert returns the alert state computed by the last successful cycle.
func (p *Plugin) Alert() airquality.AlertState {
	return p.alert
}

// Latest returns the readings retained by the last successful cycle.
func (p *Plugin) Latest() airquality.LatestReadings {
	return p.latest
}

func (p *Plugin) publish(log *slog.Logger, u DeviceUpdate) {
	if prev, ok := p.published[u.Slot]; ok && prev == u {
		return
	}
	if err := p.registry.Update(u); err != nil {
		log.Warn("failed to update device", "slot", u.Slot, "error", err)
		return
	}
	p.published[u.Slot] = u
	log.Debug("updated device", "slot", u.Slot, "value", u.Value, "text", u.Text, "unit", u.Unit)
}

func (p *Plugin) reportOnce(log *slog.Logger, key string, err error) {
	if p.reported[key] {
		log.Debug("configuration error persists, cycle skipped", "error", err)
		return
	}
	p.reported[key] = true
	log.Error("configuration error, cycle skipped", "error", err)
}

func (p *Plugin) clearReport(key string) {
	delete(p.reported, key)
}

// Updates renders the device values for one cycle: one slot per retained
// pollutant, then the info and alert slots.
func Updates(specs []airquality.PollutantSpec, latest airquality.LatestReadings, sum airquality.Summary, alert airquality.AlertState) []DeviceUpdate {
	out := make([]DeviceUpdate, 0, len(latest)+2)
	for _, s := range specs {
		r, ok := latest[s.ID]
		if !ok {
			continue
		}
		out = append(out, DeviceUpdate{
			Slot:  s.ID,
			Value: int(r.Value),
			Text:  strconv.FormatFloat(r.Value, 'f', 1, 64),
			Unit:  r.Unit,
		})
	}
	out = append(out,
		DeviceUpdate{
			Slot: SlotInfo,
			Text: fmt.Sprintf("Stations: %d, measurements: %d", sum.Stations, sum.Measurements),
		},
		DeviceUpdate{
			Slot:  SlotAlert,
			Value: int(alert.Tier),
			Text:  alert.Text(),
		},
	)
	return out
}
