// Package sim orchestrates full simulation runs: it walks a persona through
// its days second by second, drives the battery model through the resulting
// trips and charge sessions, and hands the telemetry to a sink.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/batterysim/core/anomaly"
	"github.com/kilianp07/batterysim/core/battery"
	"github.com/kilianp07/batterysim/core/behavior"
	"github.com/kilianp07/batterysim/core/charging"
	"github.com/kilianp07/batterysim/core/driving"
	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/model"
	"github.com/kilianp07/batterysim/core/sink"
)

const secondsPerDay = 24 * 3600

// Archetype selects a fixed day shape instead of the dynamic planner.
type Archetype string

const (
	ArchetypeDynamic        Archetype = ""
	ArchetypeCommuter       Archetype = "commuter"
	ArchetypeWeekendWarrior Archetype = "weekend_warrior"
)

// Options configures a run.
type Options struct {
	VehicleID string
	Profile   string
	Days      int
	Seed      int64
	Start     time.Time
	Archetype Archetype

	// AnnualFadePercent is the calendar ageing rate applied day by day.
	AnnualFadePercent float64

	// Anomalies enables the daily fault-injection rolls.
	Anomalies bool
}

func (o *Options) setDefaults() {
	if o.Days <= 0 {
		o.Days = 1
	}
	if o.Start.IsZero() {
		o.Start = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	}
	o.Start = o.Start.Truncate(24 * time.Hour)
	if o.AnnualFadePercent == 0 {
		o.AnnualFadePercent = 2.0
	}
}

// Engine runs one vehicle through a multi-day simulation.
type Engine struct {
	opts    Options
	spec    model.VehicleSpec
	profile behavior.Profile
	log     logger.Logger

	rng      *rand.Rand
	battery  *battery.Model
	driver   *behavior.Simulator
	drive    *driving.Generator
	injector *anomaly.Generator
}

// New builds an Engine, resolving the vehicle and persona from their
// catalogs.
func New(opts Options, log logger.Logger) (*Engine, error) {
	opts.setDefaults()

	spec, err := model.SpecFor(opts.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("resolve vehicle %q: %w", opts.VehicleID, err)
	}
	profile, err := behavior.ProfileFor(opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("resolve profile %q: %w", opts.Profile, err)
	}
	if log == nil {
		log = logger.Nop()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	return &Engine{
		opts:     opts,
		spec:     spec,
		profile:  profile,
		log:      log,
		rng:      rng,
		battery:  battery.New(spec, log),
		driver:   behavior.NewSimulator(profile, rng),
		drive:    driving.NewGenerator(rng),
		injector: anomaly.NewGenerator(rng),
	}, nil
}

// AmbientTemperature returns the diurnal ambient curve in °C: coolest just
// before dawn, peaking mid-afternoon.
func AmbientTemperature(hourOfDay float64) float64 {
	return 20 + 10*math.Sin((hourOfDay-6)*math.Pi/12)
}

type activityKind int

const (
	actIdle activityKind = iota
	actDrive
	actCharge
)

type activity struct {
	kind      activityKind
	remaining int // seconds

	// driving
	profile []float64
	idx     int

	// charging
	charger   charging.Class
	targetSoC float64
	elapsed   float64
}

// Run simulates the configured days and writes each day's telemetry and
// events to the sink as one batch. The context is checked between days.
func (e *Engine) Run(ctx context.Context, out sink.TelemetrySink) (Summary, error) {
	summary := Summary{
		VehicleID: e.opts.VehicleID,
		Profile:   e.opts.Profile,
		Days:      e.opts.Days,
	}
	var socSeries, tempSeries []float64

	for day := 0; day < e.opts.Days; day++ {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		date := e.opts.Start.AddDate(0, 0, day)
		records := e.simulateDay(date, &summary)

		var events []model.AnomalyEvent
		if e.opts.Anomalies {
			events = e.injectDailyAnomalies(date, records)
			summary.AnomalyEvents += len(events)
		}

		for _, r := range records {
			socSeries = append(socSeries, r.SoCPercent)
			tempSeries = append(tempSeries, r.Temperature)
		}
		summary.Records += len(records)

		n, err := out.WriteTelemetry(ctx, records)
		if err != nil {
			return summary, fmt.Errorf("write telemetry day %d: %w", day, err)
		}
		summary.RowsWritten += n

		if len(events) > 0 {
			if _, err := out.WriteEvents(ctx, events); err != nil {
				return summary, fmt.Errorf("write events day %d: %w", day, err)
			}
		}

		e.applyDailyFade()
		e.log.Debugw("day simulated", map[string]any{
			"vehicle_id": e.opts.VehicleID,
			"day":        day,
			"records":    len(records),
			"events":     len(events),
			"soc":        e.battery.SoC(),
			"soh":        e.battery.SoH(),
		})
	}

	summary.finalize(socSeries, tempSeries)
	return summary, nil
}

func (e *Engine) simulateDay(date time.Time, summary *Summary) []model.TelemetryRecord {
	weekend := isWeekend(date)
	wakeSec := e.driver.WakeTime(weekend) * 60

	planned := e.plannedBlocks(weekend, wakeSec)
	act := activity{kind: actIdle, remaining: wakeSec}
	records := make([]model.TelemetryRecord, 0, secondsPerDay)
	wasShutdown := e.battery.GetState().ThermalShutdown

	for sec := 0; sec < secondsPerDay; sec++ {
		ts := date.Add(time.Duration(sec) * time.Second)
		e.battery.SetAmbientTemp(AmbientTemperature(float64(sec) / 3600))

		if act.remaining <= 0 {
			act = e.nextActivity(sec, weekend, ts, &planned, summary)
		}

		var requested float64
		switch act.kind {
		case actDrive:
			if act.idx < len(act.profile) {
				requested = act.profile[act.idx]
				act.idx++
			}
		case actCharge:
			if e.battery.SoC() >= act.targetSoC {
				act.remaining = 0
			} else {
				requested = charging.CommandCurrent(act.charger, e.battery.SoC(), act.elapsed)
				act.elapsed++
			}
		}

		actual, _, power := e.battery.ApplyCurrent(requested, 1, ts)
		act.remaining--

		records = append(records, e.makeRecord(ts, act, actual, power))

		shutdown := e.battery.GetState().ThermalShutdown
		if shutdown && !wasShutdown {
			summary.ThermalShutdowns++
		}
		wasShutdown = shutdown
	}
	return records
}

// nextActivity consults the persona: charge when the policy says so, start a
// trip when the mood strikes, otherwise idle for an hour. Planned archetype
// blocks take precedence. Activities never run past midnight.
func (e *Engine) nextActivity(sec int, weekend bool, ts time.Time, planned *[]activity, summary *Summary) activity {
	dayRemaining := secondsPerDay - sec

	if len(*planned) > 0 {
		act := (*planned)[0]
		*planned = (*planned)[1:]
		if act.kind == actCharge {
			summary.ChargeSessions++
		}
		return capActivity(act, dayRemaining)
	}

	soc := e.battery.SoC()
	hour := sec / 3600

	if d := e.driver.Decide(soc, hour, ts.Weekday()); d.Charge && soc < d.TargetSoC-5 {
		summary.ChargeSessions++
		return capActivity(e.chargeActivity(soc, d.TargetSoC), dayRemaining)
	}

	if e.driver.ShouldDriveNow(hour, weekend) {
		legMiles := e.driver.TripDistance(weekend) / 4
		hours := math.Max(0.25, legMiles/50)
		mode := e.driver.DrivingStyle()
		duration := int(hours * 3600)
		return capActivity(activity{
			kind:      actDrive,
			profile:   e.drive.Generate(mode, duration, 1),
			remaining: duration,
		}, dayRemaining)
	}

	return capActivity(activity{kind: actIdle, remaining: 3600}, dayRemaining)
}

// chargeActivity sizes a session for the energy deficit, then bends the
// duration to the persona: the cautious linger, the spontaneous cut out
// early.
func (e *Engine) chargeActivity(soc, target float64) activity {
	urgency := math.Max(0, (e.profile.PreferredSoCMin-soc)/e.profile.PreferredSoCMin)
	charger := e.driver.ChargerPreference(urgency)

	energyNeededKWh := (target - soc) / 100 * e.battery.EffectiveCapacityKWh()
	hours := energyNeededKWh / (charger.Spec().MaxPowerKW * 0.9)

	switch e.profile.Name {
	case "cautious":
		hours = math.Min(hours+0.5, 8)
	case "spontaneous":
		hours = math.Min(hours*0.5, 2)
	default:
		hours = math.Min(hours, 4)
	}

	return activity{
		kind:      actCharge,
		remaining: int(hours * 3600),
		charger:   charger,
		targetSoC: target,
	}
}

// plannedBlocks returns the archetype's fixed day shape, scheduled to start
// at wake-up. Dynamic runs plan nothing.
func (e *Engine) plannedBlocks(weekend bool, wakeSec int) []activity {
	switch e.opts.Archetype {
	case ArchetypeCommuter:
		if weekend {
			return nil
		}
		legMiles := e.driver.TripDistance(false) / 2
		legSec := int(legMiles / 50 * 3600)
		return []activity{
			e.driveBlock(driving.ModeMixed, legSec),
			{kind: actIdle, remaining: 9 * 3600},
			e.driveBlock(driving.ModeMixed, legSec),
		}
	case ArchetypeWeekendWarrior:
		if !weekend {
			return nil
		}
		legMiles := e.driver.TripDistance(true) / 2
		legSec := int(legMiles / 60 * 3600)
		return []activity{
			{kind: actIdle, remaining: 2 * 3600},
			e.driveBlock(driving.ModeHighway, legSec),
			{kind: actIdle, remaining: 3 * 3600},
			e.driveBlock(driving.ModeHighway, legSec),
		}
	default:
		return nil
	}
}

func (e *Engine) driveBlock(mode driving.Mode, durationSec int) activity {
	return activity{
		kind:      actDrive,
		profile:   e.drive.Generate(mode, durationSec, 1),
		remaining: durationSec,
	}
}

func capActivity(act activity, dayRemaining int) activity {
	if act.remaining > dayRemaining {
		act.remaining = dayRemaining
	}
	if act.remaining < 1 {
		act.remaining = 1
	}
	return act
}

// makeRecord snapshots the battery into a telemetry record, with gaussian
// sensor noise on the electrical and thermal readings. State of charge and
// health come straight from the model.
func (e *Engine) makeRecord(ts time.Time, act activity, actualCurrent, powerW float64) model.TelemetryRecord {
	st := e.battery.GetState()

	voltage := st.Voltage + e.rng.NormFloat64()*0.01*math.Abs(st.Voltage)
	current := st.Current + e.rng.NormFloat64()*0.01*math.Abs(st.Current)
	temp := st.Temperature + e.rng.NormFloat64()*0.01*math.Abs(st.Temperature)

	rec := model.TelemetryRecord{
		Time:             ts,
		VehicleID:        e.opts.VehicleID,
		SoCPercent:       st.SoCPercent,
		SoHPercent:       st.SoHPercent,
		Voltage:          voltage,
		Current:          current,
		Temperature:      temp,
		MaxCellTemp:      temp + math.Abs(e.rng.NormFloat64()*2),
		MinCellTemp:      temp - math.Abs(e.rng.NormFloat64()*2),
		PowerKW:          powerW / 1000,
		EnergyKWh:        st.EnergyKWh,
		EstimatedRangeKm: st.EstimatedRangeKm,
		AmbientTemp:      e.battery.AmbientTemp(),
		DataQuality:      100,
	}

	switch act.kind {
	case actDrive:
		rec.IsDriving = true
		rec.SpeedKmh = math.Abs(actualCurrent) * 0.5
	case actCharge:
		rec.IsCharging = actualCurrent > 0
	}
	return rec
}

// applyDailyFade ages the pack by one day of calendar fade, with the same
// noisy daily rate the capacity-fade anomaly uses.
func (e *Engine) applyDailyFade() {
	daily := e.opts.AnnualFadePercent / 365 * (1 + e.rng.NormFloat64()*0.1)
	if daily < 0 {
		daily = 0
	}
	e.battery.SetSoH(e.battery.SoH() - daily)
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
