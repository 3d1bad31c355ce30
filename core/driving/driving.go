// Package driving generates per-second current-demand profiles for named
// driving modes. Negative current is discharge, positive is regenerative
// braking.
package driving

import (
	"math/rand"
	"time"
)

// Mode selects a driving pattern.
type Mode int

const (
	ModeCity Mode = iota
	ModeHighway
	ModeAggressive
	ModeEco
	ModeMixed
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCity:
		return "city"
	case ModeHighway:
		return "highway"
	case ModeAggressive:
		return "aggressive"
	case ModeEco:
		return "eco"
	case ModeMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// nominalVoltage converts kW power targets into pack current.
const nominalVoltage = 350.0

// Generator produces finite current profiles. It owns its random stream so
// concurrent vehicle simulations never share state.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil rng falls back to a time-seeded
// stream; pass a seeded source for reproducible profiles.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate returns a per-second current profile for the mode. A duration of
// zero or less yields an empty profile.
func (g *Generator) Generate(mode Mode, durationSeconds int, dt float64) []float64 {
	switch mode {
	case ModeHighway:
		return g.Highway(durationSeconds, dt)
	case ModeAggressive:
		return g.Aggressive(durationSeconds, dt)
	case ModeEco:
		return g.Eco(durationSeconds, dt)
	case ModeMixed:
		return g.Mixed(durationSeconds, dt)
	default:
		return g.City(durationSeconds, dt)
	}
}

type cityState int

const (
	cityStopped cityState = iota
	cityAccelerating
	cityCruising
	cityBraking
	cityCoasting
)

// City simulates stop-and-go traffic: a state machine cycling through
// stopped, accelerating, cruising and braking/coasting with randomized
// dwell times.
func (g *Generator) City(durationSeconds int, dt float64) []float64 {
	samples := numSamples(durationSeconds, dt)
	profile := make([]float64, 0, samples)

	state := cityStopped
	stateTimer := 0.0
	speedMph := 0.0

	for i := 0; i < samples; i++ {
		var current float64
		switch state {
		case cityStopped:
			current = 0
			stateTimer += dt
			// Traffic light changes every 30-90 seconds.
			if stateTimer > g.uniform(30, 90) {
				state = cityAccelerating
				stateTimer = 0
			}
		case cityAccelerating:
			accelerationKW := g.uniform(30, 60) * (1 + g.normal(0, 0.1))
			current = -accelerationKW * 1000 / nominalVoltage
			speedMph += 3 * dt
			if speedMph >= g.uniform(25, 37) {
				state = cityCruising
				stateTimer = 0
			}
		case cityCruising:
			cruiseKW := 10 + speedMph*0.5
			current = -cruiseKW * 1000 / nominalVoltage
			current *= 1 + g.normal(0, 0.05)
			stateTimer += dt
			if stateTimer > g.uniform(10, 30) {
				if g.rng.Float64() > 0.3 {
					state = cityBraking
				} else {
					state = cityCoasting
				}
				stateTimer = 0
			}
		case cityBraking:
			regenKW := g.uniform(10, 30)
			current = regenKW * 1000 / nominalVoltage
			speedMph -= 6 * dt
			if speedMph <= 0 {
				speedMph = 0
				state = cityStopped
				stateTimer = 0
			}
		case cityCoasting:
			current = -2 * 1000 / nominalVoltage
			speedMph -= 1.2 * dt
			stateTimer += dt
			if stateTimer > g.uniform(5, 15) || speedMph <= 12 {
				state = cityBraking
				stateTimer = 0
			}
		}
		profile = append(profile, current)
	}
	return profile
}

// Highway simulates an entry ramp followed by a noisy cruise with rare
// passing maneuvers and hills.
func (g *Generator) Highway(durationSeconds int, dt float64) []float64 {
	samples := numSamples(durationSeconds, dt)
	profile := make([]float64, 0, samples)

	ramp := samples
	if ramp > 30 {
		ramp = 30
	}
	for i := 0; i < ramp; i++ {
		accelerationKW := 80 - float64(i)*2
		profile = append(profile, -accelerationKW*1000/nominalVoltage)
	}

	cruiseSpeed := g.uniform(56, 68) // mph
	baseKW := 15 + cruiseSpeed*0.4

	for i := ramp; i < samples; i++ {
		var current float64
		switch {
		case g.rng.Float64() < 0.05: // passing maneuver
			current = -80 * 1000 / nominalVoltage
		case g.rng.Float64() < 0.02: // hill
			hillFactor := g.uniform(1.3, 1.8)
			current = -baseKW * hillFactor * 1000 / nominalVoltage
		default:
			variation := 1 + g.normal(0, 0.03)
			current = -baseKW * variation * 1000 / nominalVoltage
		}
		profile = append(profile, current)
	}
	return profile
}

// Aggressive cycles hard acceleration, fast cruise, hard braking and
// moderate cruise on a fixed 60-second period.
func (g *Generator) Aggressive(durationSeconds int, dt float64) []float64 {
	samples := numSamples(durationSeconds, dt)
	profile := make([]float64, 0, samples)

	for i := 0; i < samples; i++ {
		phase := float64(i) * dt
		phase -= 60 * float64(int(phase/60))

		var current float64
		switch {
		case phase < 10: // hard acceleration
			current = -g.uniform(100, 150) * 1000 / nominalVoltage
		case phase < 20: // high-speed cruise
			current = -g.uniform(40, 60) * 1000 / nominalVoltage
		case phase < 25: // hard braking
			current = g.uniform(40, 60) * 1000 / nominalVoltage
		default: // moderate cruise
			current = -g.uniform(20, 40) * 1000 / nominalVoltage
		}
		current *= 1 + g.normal(0, 0.1)
		profile = append(profile, current)
	}
	return profile
}

// Eco smoothly tracks a periodically re-chosen target speed with gentle
// acceleration and maximal regenerative braking.
func (g *Generator) Eco(durationSeconds int, dt float64) []float64 {
	samples := numSamples(durationSeconds, dt)
	profile := make([]float64, 0, samples)

	speedMph := 0.0
	targetSpeed := 0.0
	targets := []float64{0, 50, 70, 90}

	for i := 0; i < samples; i++ {
		if i%300 == 0 { // retarget every 5 minutes
			targetSpeed = targets[g.rng.Intn(len(targets))]
		}

		var current float64
		diff := targetSpeed - speedMph
		switch {
		case diff > 1:
			accelerationKW := diff * 2
			if accelerationKW > 30 {
				accelerationKW = 30
			}
			current = -accelerationKW * 1000 / nominalVoltage
			speedMph += 2 * dt
		case diff < -1:
			regenKW := -diff * 1.5
			if regenKW > 25 {
				regenKW = 25
			}
			current = regenKW * 1000 / nominalVoltage
			speedMph -= 5 * dt
		default:
			if speedMph > 0 {
				powerKW := 5 + speedMph*0.25
				current = -powerKW * 1000 / nominalVoltage
			}
		}
		profile = append(profile, current)
	}
	return profile
}

// Mixed concatenates weighted city, highway and eco segments so the result
// approximates a full daily mix.
func (g *Generator) Mixed(durationSeconds int, dt float64) []float64 {
	samples := numSamples(durationSeconds, dt)
	profile := make([]float64, 0, samples)

	segments := []struct {
		mode  Mode
		share float64
	}{
		{ModeCity, 0.3},
		{ModeHighway, 0.4},
		{ModeCity, 0.2},
		{ModeEco, 0.1},
	}

	for _, seg := range segments {
		segSamples := int(float64(samples) * seg.share)
		segProfile := g.Generate(seg.mode, int(float64(segSamples)*dt), dt)
		if len(segProfile) > segSamples {
			segProfile = segProfile[:segSamples]
		}
		profile = append(profile, segProfile...)
	}
	if len(profile) > samples {
		profile = profile[:samples]
	}
	return profile
}

func numSamples(durationSeconds int, dt float64) int {
	if durationSeconds <= 0 || dt <= 0 {
		return 0
	}
	return int(float64(durationSeconds) / dt)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) normal(mu, sigma float64) float64 {
	return mu + g.rng.NormFloat64()*sigma
}
