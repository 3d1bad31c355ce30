// Package behavior models driver personas: when they wake, when and how far
// they drive, how they pick a charger, and when they decide to plug in.
package behavior

import (
	"errors"
	"sort"
)

// ErrUnknownProfile is returned when a profile name is not in the catalog.
var ErrUnknownProfile = errors.New("behavior: unknown profile")

// Profile bundles the parameters of a driver persona. Preferences are 0..1
// weights; distances are in miles; wake times are minutes after midnight.
type Profile struct {
	Name string `json:"name"`

	WakeStartMin int   `json:"wake_start_min"`
	WakeEndMin   int   `json:"wake_end_min"`
	PeakHours    []int `json:"peak_hours"`

	TripDistanceMinMi float64 `json:"trip_distance_min_mi"`
	TripDistanceMaxMi float64 `json:"trip_distance_max_mi"`
	WeekendTripFactor float64 `json:"weekend_trip_factor"`

	PreferredSoCMin    float64 `json:"preferred_soc_min"`
	TargetSoC          float64 `json:"target_soc"`
	RangeAnxiety       float64 `json:"range_anxiety"`
	WeeklyChargeBudget float64 `json:"weekly_charge_budget"`

	NightChargeProb   float64 `json:"night_charge_prob"`
	OpportunisticProb float64 `json:"opportunistic_prob"`

	Spontaneity           float64 `json:"spontaneity"`
	PlanningAhead         float64 `json:"planning_ahead"`
	EcoConsciousness      float64 `json:"eco_consciousness"`
	PerformancePreference float64 `json:"performance_preference"`
}

var profileCatalog = map[string]Profile{
	"night_owl": {
		Name:         "night_owl",
		WakeStartMin: 10 * 60, WakeEndMin: 12 * 60,
		PeakHours:         []int{14, 15, 16, 20, 21, 22, 23, 0, 1},
		TripDistanceMinMi: 20, TripDistanceMaxMi: 100, WeekendTripFactor: 1.5,
		PreferredSoCMin: 20, TargetSoC: 80, RangeAnxiety: 0.7, WeeklyChargeBudget: 4,
		NightChargeProb: 0.3, OpportunisticProb: 0.4,
		Spontaneity: 0.8, PlanningAhead: 0.3, EcoConsciousness: 0.4, PerformancePreference: 0.6,
	},
	"early_bird": {
		Name:         "early_bird",
		WakeStartMin: 5 * 60, WakeEndMin: 6*60 + 30,
		PeakHours:         []int{6, 7, 8, 9},
		TripDistanceMinMi: 30, TripDistanceMaxMi: 80, WeekendTripFactor: 0.8,
		PreferredSoCMin: 40, TargetSoC: 90, RangeAnxiety: 1.3, WeeklyChargeBudget: 5,
		NightChargeProb: 0.9, OpportunisticProb: 0.5,
		Spontaneity: 0.2, PlanningAhead: 0.8, EcoConsciousness: 0.5, PerformancePreference: 0.3,
	},
	"spontaneous": {
		Name:         "spontaneous",
		WakeStartMin: 7 * 60, WakeEndMin: 11 * 60,
		PeakHours:         []int{11, 12, 13, 18, 19},
		TripDistanceMinMi: 20, TripDistanceMaxMi: 150, WeekendTripFactor: 1.8,
		PreferredSoCMin: 15, TargetSoC: 70, RangeAnxiety: 0.5, WeeklyChargeBudget: 4,
		NightChargeProb: 0.4, OpportunisticProb: 0.6,
		Spontaneity: 0.95, PlanningAhead: 0.1, EcoConsciousness: 0.3, PerformancePreference: 0.6,
	},
	"cautious": {
		Name:         "cautious",
		WakeStartMin: 6*60 + 30, WakeEndMin: 7*60 + 30,
		PeakHours:         []int{8, 9, 16, 17},
		TripDistanceMinMi: 30, TripDistanceMaxMi: 60, WeekendTripFactor: 0.7,
		PreferredSoCMin: 50, TargetSoC: 95, RangeAnxiety: 1.5, WeeklyChargeBudget: 6,
		NightChargeProb: 0.95, OpportunisticProb: 0.7,
		Spontaneity: 0.1, PlanningAhead: 0.9, EcoConsciousness: 0.8, PerformancePreference: 0.1,
	},
	"commuter": {
		Name:         "commuter",
		WakeStartMin: 6 * 60, WakeEndMin: 7 * 60,
		PeakHours:         []int{7, 8, 17, 18},
		TripDistanceMinMi: 60, TripDistanceMaxMi: 120, WeekendTripFactor: 0.4,
		PreferredSoCMin: 30, TargetSoC: 85, RangeAnxiety: 1.0, WeeklyChargeBudget: 5,
		NightChargeProb: 0.85, OpportunisticProb: 0.3,
		Spontaneity: 0.3, PlanningAhead: 0.8, EcoConsciousness: 0.5, PerformancePreference: 0.4,
	},
	"weekend_warrior": {
		Name:         "weekend_warrior",
		WakeStartMin: 8 * 60, WakeEndMin: 10 * 60,
		PeakHours:         []int{10, 11, 12, 13, 14},
		TripDistanceMinMi: 20, TripDistanceMaxMi: 60, WeekendTripFactor: 4.0,
		PreferredSoCMin: 25, TargetSoC: 90, RangeAnxiety: 1.1, WeeklyChargeBudget: 4,
		NightChargeProb: 0.7, OpportunisticProb: 0.5,
		Spontaneity: 0.6, PlanningAhead: 0.5, EcoConsciousness: 0.4, PerformancePreference: 0.6,
	},
	"eco_conscious": {
		Name:         "eco_conscious",
		WakeStartMin: 7 * 60, WakeEndMin: 8*60 + 30,
		PeakHours:         []int{9, 10, 15, 16},
		TripDistanceMinMi: 25, TripDistanceMaxMi: 70, WeekendTripFactor: 1.0,
		PreferredSoCMin: 20, TargetSoC: 80, RangeAnxiety: 0.9, WeeklyChargeBudget: 3.5,
		NightChargeProb: 0.8, OpportunisticProb: 0.4,
		Spontaneity: 0.4, PlanningAhead: 0.7, EcoConsciousness: 0.95, PerformancePreference: 0.1,
	},
	"performance_enthusiast": {
		Name:         "performance_enthusiast",
		WakeStartMin: 7*60 + 30, WakeEndMin: 9 * 60,
		PeakHours:         []int{12, 13, 18, 19, 20},
		TripDistanceMinMi: 30, TripDistanceMaxMi: 120, WeekendTripFactor: 1.5,
		PreferredSoCMin: 30, TargetSoC: 90, RangeAnxiety: 1.0, WeeklyChargeBudget: 5.5,
		NightChargeProb: 0.6, OpportunisticProb: 0.5,
		Spontaneity: 0.7, PlanningAhead: 0.4, EcoConsciousness: 0.1, PerformancePreference: 0.95,
	},
	"common_driver": {
		Name:         "common_driver",
		WakeStartMin: 6*60 + 30, WakeEndMin: 7*60 + 30,
		PeakHours:         []int{8, 9, 10, 11, 14, 15, 16, 17},
		TripDistanceMinMi: 28, TripDistanceMaxMi: 40, WeekendTripFactor: 1.2,
		PreferredSoCMin: 25, TargetSoC: 85, RangeAnxiety: 1.0, WeeklyChargeBudget: 4.5,
		NightChargeProb: 0.80, OpportunisticProb: 0.35,
		Spontaneity: 0.5, PlanningAhead: 0.7, EcoConsciousness: 0.6, PerformancePreference: 0.4,
	},
}

// ProfileFor returns the catalog entry for the name.
func ProfileFor(name string) (Profile, error) {
	p, ok := profileCatalog[name]
	if !ok {
		return Profile{}, ErrUnknownProfile
	}
	return p, nil
}

// ProfileNames returns the catalog names in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profileCatalog))
	for name := range profileCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
