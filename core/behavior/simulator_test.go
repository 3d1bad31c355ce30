package behavior

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/kilianp07/batterysim/core/charging"
	"github.com/kilianp07/batterysim/core/driving"
)

func mustProfile(t *testing.T, name string) Profile {
	t.Helper()
	p, err := ProfileFor(name)
	if err != nil {
		t.Fatalf("ProfileFor(%q): %v", name, err)
	}
	return p
}

func newSim(t *testing.T, name string, seed int64) *Simulator {
	t.Helper()
	return NewSimulator(mustProfile(t, name), rand.New(rand.NewSource(seed)))
}

func TestProfileForUnknown(t *testing.T) {
	if _, err := ProfileFor("road_rager"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestProfileNamesSortedAndComplete(t *testing.T) {
	names := ProfileNames()
	if len(names) != 9 {
		t.Fatalf("expected 9 profiles, got %d: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestWakeTimeStaysInWindow(t *testing.T) {
	s := newSim(t, "commuter", 1)
	for i := 0; i < 200; i++ {
		wake := s.WakeTime(false)
		if wake < 6*60 || wake > 7*60 {
			t.Fatalf("weekday wake %d outside 06:00-07:00", wake)
		}
	}
}

func TestWakeTimeWeekendShiftSkipsEarlyBird(t *testing.T) {
	early := newSim(t, "early_bird", 2)
	for i := 0; i < 200; i++ {
		wake := early.WakeTime(true)
		if wake < 5*60 || wake > 6*60+30 {
			t.Fatalf("early_bird weekend wake %d escaped its window", wake)
		}
	}

	owl := newSim(t, "night_owl", 3)
	for i := 0; i < 200; i++ {
		if wake := owl.WakeTime(true); wake < 11*60 {
			t.Fatalf("night_owl weekend wake %d before shifted window start", wake)
		}
	}
}

func TestCommuterRushHourDrivesOften(t *testing.T) {
	s := newSim(t, "commuter", 4)
	drives := 0
	for i := 0; i < 1000; i++ {
		if s.ShouldDriveNow(8, false) {
			drives++
		}
	}
	// Rush-hour probability is 0.9 minus a small spontaneity discount.
	if drives < 750 {
		t.Fatalf("commuter drove only %d/1000 at rush hour", drives)
	}
}

func TestTripDistanceWeekendScaling(t *testing.T) {
	s := newSim(t, "weekend_warrior", 5)
	for i := 0; i < 200; i++ {
		d := s.TripDistance(true)
		// 4x factor on a 20-60 mile band, then up to 1.1 stretch.
		if d < 20*4*0.5 || d > 60*4*1.1+0.001 {
			t.Fatalf("weekend trip %f outside scaled band", d)
		}
	}
}

func TestDecideSimpleAnxietyThreshold(t *testing.T) {
	s := newSim(t, "cautious", 6)
	// Comfort line is 50 * 1.5 = 75%.
	d := s.DecideSimple(60, 12)
	if !d.Charge || d.TargetSoC != 95 {
		t.Fatalf("cautious at 60%% should charge to 95, got %+v", d)
	}
}

func TestDecideEmergencyAlwaysCharges(t *testing.T) {
	s := newSim(t, "spontaneous", 7)
	for day := 0; day < 14; day++ {
		d := s.Decide(10, 12, time.Weekday(day%7))
		if !d.Charge {
			t.Fatalf("day %d: sub-15%% pack must always charge", day)
		}
	}
}

func TestDecideRespectsWeeklyBudget(t *testing.T) {
	s := newSim(t, "common_driver", 8)

	// Burn the 4.5-session budget with low-charge decisions on a Monday.
	for i := 0; i < 5; i++ {
		if d := s.Decide(25, 12, time.Monday); !d.Charge {
			t.Fatalf("session %d: at preferred minimum with budget left, expected charge", i)
		}
	}
	// Budget exhausted: a 25% pack no longer triggers a session.
	if d := s.Decide(25, 12, time.Monday); d.Charge {
		t.Fatal("expected budget exhaustion to refuse a 25% pack")
	}
	// But a sub-20% pack still does.
	if d := s.Decide(19, 12, time.Monday); !d.Charge {
		t.Fatal("sub-20% pack should override the budget")
	}
	// Sunday resets the ledger.
	if d := s.Decide(25, 12, time.Sunday); !d.Charge {
		t.Fatal("expected fresh budget after the weekly reset")
	}
}

func TestDecideDrySpellOverridesExhaustedBudget(t *testing.T) {
	s := newSim(t, "common_driver", 14)
	for i := 0; i < 5; i++ {
		if d := s.Decide(25, 12, time.Monday); !d.Charge {
			t.Fatalf("session %d: at preferred minimum with budget left, expected charge", i)
		}
	}
	// A 30% pack with a spent budget is refused, but each refusal counts
	// toward the dry spell and the fourth one forces a plug-in.
	for i := 0; i < 3; i++ {
		if d := s.Decide(30, 12, time.Wednesday); d.Charge {
			t.Fatalf("refusal %d: budget-exhausted 30%% pack charged early", i)
		}
	}
	if d := s.Decide(30, 12, time.Wednesday); !d.Charge {
		t.Fatal("fourth refused day should force a charge despite the spent budget")
	}
}

func TestDecideDrySpellForcesCharge(t *testing.T) {
	s := newSim(t, "night_owl", 9)
	// night_owl at 35% daytime: opportunistic threshold is 80*0.7 = 56, so
	// refusals accumulate; within a handful of polls the dry-spell rule fires.
	charged := false
	for i := 0; i < 20; i++ {
		if d := s.Decide(35, 12, time.Wednesday); d.Charge {
			charged = true
			break
		}
	}
	if !charged {
		t.Fatal("dry-spell rule never forced a charge")
	}
}

func TestDrivingStyleFollowsLeanings(t *testing.T) {
	eco := newSim(t, "eco_conscious", 10)
	ecoCount := 0
	for i := 0; i < 1000; i++ {
		if eco.DrivingStyle() == driving.ModeEco {
			ecoCount++
		}
	}
	if ecoCount < 400 {
		t.Fatalf("eco_conscious drew eco style only %d/1000", ecoCount)
	}

	perf := newSim(t, "performance_enthusiast", 11)
	aggressive := 0
	for i := 0; i < 1000; i++ {
		if perf.DrivingStyle() == driving.ModeAggressive {
			aggressive++
		}
	}
	if aggressive < 400 {
		t.Fatalf("performance_enthusiast drew aggressive style only %d/1000", aggressive)
	}
}

func TestChargerPreference(t *testing.T) {
	cautious := newSim(t, "cautious", 12)
	if got := cautious.ChargerPreference(0.2); got != charging.ACLevel2 && got != charging.ACLevel1 {
		t.Fatalf("calm eco driver picked %s", got)
	}

	urgent := newSim(t, "commuter", 13)
	for i := 0; i < 100; i++ {
		got := urgent.ChargerPreference(0.9)
		if got != charging.DCFast && got != charging.Supercharger {
			t.Fatalf("urgent stop picked %s", got)
		}
	}
}
