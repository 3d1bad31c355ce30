// Package charging generates constant-current / constant-voltage charge
// profiles for the common charger classes, plus interrupted, tariff-aware
// and degraded-hardware variants.
package charging

import (
	"math"
	"math/rand"
	"time"
)

// Class identifies a charger category.
type Class int

const (
	ACLevel1 Class = iota
	ACLevel2
	DCFast
	Supercharger
)

// String returns a human-readable representation of the charger class.
func (c Class) String() string {
	switch c {
	case ACLevel1:
		return "ac_level1"
	case ACLevel2:
		return "ac_level2"
	case DCFast:
		return "dc_fast"
	case Supercharger:
		return "supercharger"
	default:
		return "unknown"
	}
}

// Spec describes the electrical envelope of a charger class.
type Spec struct {
	MaxPowerKW float64
	Efficiency float64
	VoltageV   float64
}

// Spec returns the envelope for the class.
func (c Class) Spec() Spec {
	switch c {
	case ACLevel1:
		return Spec{MaxPowerKW: 1.4, Efficiency: 0.85, VoltageV: 240}
	case ACLevel2:
		return Spec{MaxPowerKW: 11, Efficiency: 0.90, VoltageV: 240}
	case DCFast:
		return Spec{MaxPowerKW: 50, Efficiency: 0.95, VoltageV: 400}
	case Supercharger:
		return Spec{MaxPowerKW: 150, Efficiency: 0.97, VoltageV: 400}
	default:
		return Spec{MaxPowerKW: 11, Efficiency: 0.90, VoltageV: 240}
	}
}

// nominalVoltage converts charger power into pack current.
const nominalVoltage = 350.0

// startupRampSeconds is the linear soft-start applied at session begin.
const startupRampSeconds = 10.0

// Window marks a half-open sample range [Start, End) during which the
// charger delivers no current.
type Window struct {
	Start int
	End   int
}

// Profile is a generated charge session sampled at a fixed step.
type Profile struct {
	Current   []float64 // reported pack current, A
	SoC       []float64 // state of charge after each step, percent
	PowerKW   []float64 // delivered power at the pack
	Completed bool      // target state of charge was reached
}

// Generator produces charge profiles against a fixed pack capacity. It owns
// its random stream so concurrent simulations never share state.
type Generator struct {
	rng         *rand.Rand
	capacityKWh float64
}

// NewGenerator creates a Generator for a pack of the given usable capacity.
// A nil rng falls back to a time-seeded stream.
func NewGenerator(rng *rand.Rand, capacityKWh float64) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng, capacityKWh: capacityKWh}
}

// Generate produces a CC-CV session: constant current (with a soft start and,
// for superchargers, a state-of-charge dependent taper) until the CV
// threshold, then exponentially decaying current until the target is reached.
func (g *Generator) Generate(class Class, startSoC, targetSoC float64, durationSeconds int, dt float64) Profile {
	samples := numSamples(durationSeconds, dt)
	p := newProfile(samples)

	spec := class.Spec()
	maxCurrent := spec.MaxPowerKW * 1000 / nominalVoltage
	cvSoC := cvThreshold(class)
	soc := startSoC

	for i := 0; i < samples; i++ {
		if p.Completed {
			p.append(0, 0, soc)
			continue
		}

		var current float64
		if soc < cvSoC {
			current = maxCurrent
			if class == Supercharger {
				current *= superchargerTaper(soc)
			}
			if elapsed := float64(i) * dt; elapsed < startupRampSeconds {
				current *= elapsed / startupRampSeconds
			}
		} else {
			current = maxCurrent * math.Exp(-(soc-cvSoC)/10) * 0.5
		}

		soc = g.step(&p, current, spec, soc, dt)
		if soc >= targetSoC {
			p.Completed = true
		}
	}
	return p
}

// GenerateInterrupted produces a session toward a full charge with the given
// zero-current windows. State of charge holds flat while interrupted.
func (g *Generator) GenerateInterrupted(class Class, startSoC float64, durationSeconds int, dt float64, interruptions []Window) Profile {
	base := g.Generate(class, startSoC, 100, durationSeconds, dt)

	for _, w := range interruptions {
		start, end := w.Start, w.End
		if start < 0 {
			start = 0
		}
		if end > len(base.Current) {
			end = len(base.Current)
		}
		for i := start; i < end; i++ {
			base.Current[i] = 0
			base.PowerKW[i] = 0
			if i > 0 {
				base.SoC[i] = base.SoC[i-1]
			} else {
				base.SoC[i] = startSoC
			}
		}
	}
	return base
}

// DefaultTariff is a simple time-of-use price curve in currency per kWh,
// indexed by hour of day: cheap overnight, expensive in the evening peak.
func DefaultTariff() [24]float64 {
	var prices [24]float64
	for h := 0; h < 24; h++ {
		switch {
		case h >= 23 || h <= 6:
			prices[h] = 0.10
		case h >= 17 && h <= 21:
			prices[h] = 0.30
		default:
			prices[h] = 0.15
		}
	}
	return prices
}

// GenerateSmart produces a tariff-aware AC Level 2 session: full power at
// cheap prices, half power at moderate prices, and a trickle only when the
// pack is low at peak prices. The state of charge never exceeds the target.
func (g *Generator) GenerateSmart(startSoC, targetSoC float64, startHour int, durationSeconds int, dt float64, prices [24]float64) Profile {
	samples := numSamples(durationSeconds, dt)
	p := newProfile(samples)

	spec := ACLevel2.Spec()
	maxCurrent := spec.MaxPowerKW * 1000 / nominalVoltage
	soc := startSoC

	for i := 0; i < samples; i++ {
		if p.Completed {
			p.append(0, 0, soc)
			continue
		}

		hour := (startHour + int(float64(i)*dt)/3600) % 24
		price := prices[hour]

		var current float64
		switch {
		case price < 0.12:
			current = maxCurrent
		case price < 0.20:
			current = maxCurrent * 0.5
		case soc < 20:
			current = maxCurrent * 0.1
		}

		soc = g.step(&p, current, spec, soc, dt)
		if soc >= targetSoC {
			soc = targetSoC
			p.SoC[len(p.SoC)-1] = targetSoC
			p.Completed = true
		}
	}
	return p
}

// GenerateDegraded produces a session on hardware past its prime: delivered
// current scales with remaining health, the reachable ceiling drops, and
// measurement noise grows with degradation. degradation is a 0..1 fraction.
func (g *Generator) GenerateDegraded(class Class, startSoC, targetSoC float64, durationSeconds int, dt float64, degradation float64) Profile {
	samples := numSamples(durationSeconds, dt)
	p := newProfile(samples)

	spec := class.Spec()
	health := 1 - degradation
	maxCurrent := spec.MaxPowerKW * 1000 / nominalVoltage * health
	maxSoC := 95*health + 5
	cvSoC := cvThreshold(class)
	noiseLevel := 0.02 + degradation*0.05
	soc := startSoC

	if targetSoC > maxSoC {
		targetSoC = maxSoC
	}

	for i := 0; i < samples; i++ {
		if p.Completed || soc >= maxSoC {
			p.append(0, 0, soc)
			continue
		}

		var current float64
		if soc < cvSoC {
			current = maxCurrent
			if elapsed := float64(i) * dt; elapsed < startupRampSeconds {
				current *= elapsed / startupRampSeconds
			}
		} else {
			current = maxCurrent * math.Exp(-(soc-cvSoC)/10) * 0.5
		}

		soc = g.stepNoisy(&p, current, spec, soc, dt, noiseLevel)
		if soc >= targetSoC {
			p.Completed = true
		}
	}
	return p
}

// CommandCurrent returns the pack current a charger of the class commands
// at the given state of charge and session elapsed time. This is the same
// CC-CV envelope Generate integrates, exposed per step so a live battery
// model can be driven through a session.
func CommandCurrent(class Class, soc, elapsedSeconds float64) float64 {
	spec := class.Spec()
	maxCurrent := spec.MaxPowerKW * 1000 / nominalVoltage
	cvSoC := cvThreshold(class)

	var current float64
	if soc < cvSoC {
		current = maxCurrent
		if class == Supercharger {
			current *= superchargerTaper(soc)
		}
		if elapsedSeconds < startupRampSeconds {
			current *= elapsedSeconds / startupRampSeconds
		}
	} else {
		current = maxCurrent * math.Exp(-(soc-cvSoC)/10) * 0.5
	}
	return current
}

// step integrates one sample: efficiency losses, energy delivered, state of
// charge update, and the reported current with measurement noise.
func (g *Generator) step(p *Profile, current float64, spec Spec, soc, dt float64) float64 {
	return g.stepNoisy(p, current, spec, soc, dt, 0.01)
}

func (g *Generator) stepNoisy(p *Profile, current float64, spec Spec, soc, dt, noiseLevel float64) float64 {
	// Current is already expressed at the pack, so delivered power is
	// integrated at the pack nominal voltage.
	effective := current * spec.Efficiency
	powerW := effective * nominalVoltage
	energyWh := powerW * dt / 3600
	soc += energyWh / (g.capacityKWh * 1000) * 100
	if soc > 100 {
		soc = 100
	}

	reported := current * (1 + g.rng.NormFloat64()*noiseLevel)
	if g.rng.Float64() < 0.02 {
		// Occasional connector glitch drops delivery for a sample.
		reported *= 0.7 + g.rng.Float64()*0.2
	}

	p.append(reported, powerW/1000, soc)
	return soc
}

func cvThreshold(class Class) float64 {
	if class == DCFast || class == Supercharger {
		return 80
	}
	return 85
}

// superchargerTaper models the power cut high-rate DC chargers apply as the
// pack fills.
func superchargerTaper(soc float64) float64 {
	switch {
	case soc < 20:
		return 1.0
	case soc < 50:
		return 0.9
	default:
		return 0.8 - (soc-50)*0.005
	}
}

func newProfile(samples int) Profile {
	return Profile{
		Current: make([]float64, 0, samples),
		SoC:     make([]float64, 0, samples),
		PowerKW: make([]float64, 0, samples),
	}
}

func (p *Profile) append(current, powerKW, soc float64) {
	p.Current = append(p.Current, current)
	p.PowerKW = append(p.PowerKW, powerKW)
	p.SoC = append(p.SoC, soc)
}

func numSamples(durationSeconds int, dt float64) int {
	if durationSeconds <= 0 || dt <= 0 {
		return 0
	}
	return int(float64(durationSeconds) / dt)
}
