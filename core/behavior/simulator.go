package behavior

import (
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/batterysim/core/charging"
	"github.com/kilianp07/batterysim/core/driving"
)

// Decision is the outcome of a charge deliberation.
type Decision struct {
	Charge    bool
	TargetSoC float64
}

// Simulator rolls a persona's daily decisions. It carries the weekly charge
// ledger, so one Simulator serves one vehicle across a multi-day run.
type Simulator struct {
	profile Profile
	rng     *rand.Rand

	chargesThisWeek     int
	daysSinceLastCharge int
	lastResetDay        int
}

// NewSimulator creates a Simulator for the persona. A nil rng falls back to
// a time-seeded stream.
func NewSimulator(profile Profile, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{profile: profile, rng: rng, lastResetDay: -1}
}

// Profile returns the persona parameters the simulator was built with.
func (s *Simulator) Profile() Profile { return s.profile }

// WakeTime returns the day's wake-up time in minutes after midnight.
// Weekends shift the window later for everyone except committed early
// risers; spontaneous personas spread across more of their window.
func (s *Simulator) WakeTime(weekend bool) int {
	start, end := s.profile.WakeStartMin, s.profile.WakeEndMin
	if weekend && s.profile.Name != "early_bird" {
		start += 60
		end += 90
	}
	variance := int(float64(end-start) * s.profile.Spontaneity)
	if variance < 0 {
		variance = 0
	}
	return start + s.rng.Intn(variance+1)
}

// ShouldDriveNow decides whether the persona starts a trip at the given hour.
func (s *Simulator) ShouldDriveNow(hour int, weekend bool) bool {
	prob := 0.2
	if containsHour(s.profile.PeakHours, hour) {
		prob = 0.6
	}
	if s.profile.Name == "commuter" && !weekend && (hour == 7 || hour == 8 || hour == 17 || hour == 18) {
		prob = 0.9
	}
	if s.profile.Name == "weekend_warrior" && weekend {
		prob *= 2
	}
	prob += (s.profile.Spontaneity - 0.5) * 0.2
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return s.rng.Float64() < prob
}

// TripDistance draws a trip length in miles. Weekends scale the window by
// the persona's weekend factor; spontaneous personas draw from a much wider
// band.
func (s *Simulator) TripDistance(weekend bool) float64 {
	lo, hi := s.profile.TripDistanceMinMi, s.profile.TripDistanceMaxMi
	if weekend {
		lo *= s.profile.WeekendTripFactor
		hi *= s.profile.WeekendTripFactor
	}
	if s.profile.Spontaneity > 0.7 {
		return s.uniform(lo*0.5, hi*1.5)
	}
	return s.uniform(lo*0.8, hi*1.1)
}

// DecideSimple is the anxiety-driven charge policy: plug in whenever charge
// drops under the persona's comfort line, otherwise charge opportunistically
// with separate night and daytime inclinations.
func (s *Simulator) DecideSimple(soc float64, hour int) Decision {
	if soc < s.profile.PreferredSoCMin*s.profile.RangeAnxiety {
		return Decision{Charge: true, TargetSoC: s.profile.TargetSoC}
	}
	if soc < s.profile.TargetSoC*0.8 {
		if isNight(hour) {
			if s.rng.Float64() < s.profile.NightChargeProb {
				return Decision{Charge: true, TargetSoC: s.profile.TargetSoC}
			}
		} else if s.rng.Float64() < s.profile.OpportunisticProb {
			target := s.uniform(soc+20, s.profile.TargetSoC)
			return Decision{Charge: true, TargetSoC: math.Min(target, 100)}
		}
	}
	return Decision{}
}

// Decide is the budgeted charge policy: a weekly plug-in allowance keeps the
// cadence realistic, with escape hatches for an empty pack and for long dry
// spells. dayOfWeek follows time.Weekday (Sunday = 0).
func (s *Simulator) Decide(soc float64, hour int, dayOfWeek time.Weekday) Decision {
	if dayOfWeek == time.Sunday && s.lastResetDay != int(time.Sunday) {
		s.chargesThisWeek = 0
	}
	s.lastResetDay = int(dayOfWeek)

	if soc < 15 {
		return s.charge(s.profile.TargetSoC)
	}
	if soc <= s.profile.PreferredSoCMin && float64(s.chargesThisWeek) < s.profile.WeeklyChargeBudget {
		return s.charge(s.profile.TargetSoC)
	}
	overBudget := float64(s.chargesThisWeek) >= s.profile.WeeklyChargeBudget
	if overBudget && soc < 20 {
		return s.charge(s.profile.TargetSoC)
	}

	if !overBudget {
		if isNight(hour) && soc < s.profile.TargetSoC*0.9 {
			if s.rng.Float64() < s.profile.NightChargeProb {
				return s.charge(s.profile.TargetSoC)
			}
		} else if !isNight(hour) && soc < s.profile.TargetSoC*0.7 {
			if s.rng.Float64() < s.profile.OpportunisticProb {
				target := math.Min(s.uniform(soc+15, s.profile.TargetSoC), 95)
				return s.charge(target)
			}
		}
	}

	s.daysSinceLastCharge++
	if s.daysSinceLastCharge >= 4 && soc < 40 {
		return s.charge(s.profile.TargetSoC)
	}
	return Decision{}
}

func (s *Simulator) charge(target float64) Decision {
	s.chargesThisWeek++
	s.daysSinceLastCharge = 0
	return Decision{Charge: true, TargetSoC: target}
}

// DrivingStyle draws a driving mode weighted by the persona's eco and
// performance leanings.
func (s *Simulator) DrivingStyle() driving.Mode {
	weights := []float64{
		s.profile.EcoConsciousness,
		1 - math.Abs(s.profile.PerformancePreference-0.5),
		s.profile.PerformancePreference,
	}
	modes := []driving.Mode{driving.ModeEco, driving.ModeCity, driving.ModeAggressive}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	draw := s.rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return modes[i]
		}
	}
	return modes[len(modes)-1]
}

// ChargerPreference picks a charger class. High urgency or impatience
// reaches for DC hardware, committed eco drivers stay on slow AC, everyone
// else defaults to AC Level 2. urgency is a 0..1 fraction.
func (s *Simulator) ChargerPreference(urgency float64) charging.Class {
	switch {
	case urgency > 0.8 || s.profile.Spontaneity > 0.7:
		if s.rng.Float64() < 0.7 {
			return charging.DCFast
		}
		return charging.Supercharger
	case s.profile.EcoConsciousness > 0.7:
		if s.rng.Float64() < 0.8 {
			return charging.ACLevel2
		}
		return charging.ACLevel1
	default:
		return charging.ACLevel2
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func isNight(hour int) bool {
	return hour >= 22 || hour <= 6
}

func containsHour(hours []int, h int) bool {
	for _, v := range hours {
		if v == h {
			return true
		}
	}
	return false
}
