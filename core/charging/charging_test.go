package charging

import (
	"math"
	"math/rand"
	"testing"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)), 82)
}

func TestZeroDurationYieldsEmptyProfile(t *testing.T) {
	g := newTestGenerator(1)
	p := g.Generate(ACLevel2, 50, 80, 0, 1.0)
	if len(p.Current) != 0 || p.Completed {
		t.Fatalf("expected empty incomplete profile, got %d samples completed=%v", len(p.Current), p.Completed)
	}
}

func TestACLevel2ReachesTarget(t *testing.T) {
	g := newTestGenerator(2)
	// Five hours is ample to lift an 82 kWh pack from 50% to 80% at 11 kW.
	p := g.Generate(ACLevel2, 50, 80, 5*3600, 1.0)

	if !p.Completed {
		t.Fatal("expected session to complete")
	}
	final := p.SoC[len(p.SoC)-1]
	if final < 79.5 {
		t.Fatalf("final SoC %f, want >= 79.5", final)
	}
}

func TestDeliveredPowerMatchesClassRating(t *testing.T) {
	g := newTestGenerator(15)
	p := g.Generate(ACLevel2, 50, 80, 600, 1.0)

	// CC phase well past the soft start: delivered power at the pack is the
	// class's 11 kW scaled by its 0.90 efficiency.
	got := p.PowerKW[100]
	if want := 11.0 * 0.90; math.Abs(got-want) > 0.01 {
		t.Fatalf("delivered power %f kW, want %f", got, want)
	}
}

func TestCurrentZeroAfterCompletion(t *testing.T) {
	g := newTestGenerator(3)
	p := g.Generate(Supercharger, 70, 75, 2*3600, 1.0)
	if !p.Completed {
		t.Fatal("expected session to complete")
	}

	seen := false
	for i, c := range p.Current {
		if seen && c != 0 {
			t.Fatalf("sample %d: current %f after completion", i, c)
		}
		if i > 0 && c == 0 && p.SoC[i] >= 75 {
			seen = true
		}
	}
	if !seen {
		t.Fatal("never observed zero current after target reached")
	}
}

func TestStartupRampEasesIn(t *testing.T) {
	g := newTestGenerator(4)
	p := g.Generate(DCFast, 30, 80, 600, 1.0)

	full := DCFast.Spec().MaxPowerKW * 1000 / nominalVoltage
	// First sample sits at zero delivery, well under half power by second 4.
	if p.Current[0] > full*0.1 {
		t.Fatalf("first sample %f, want near zero during ramp", p.Current[0])
	}
	if p.PowerKW[3] >= p.PowerKW[30]*0.6 {
		t.Fatalf("ramp not easing in: power %f at t=3 vs %f at t=30", p.PowerKW[3], p.PowerKW[30])
	}
}

func TestSuperchargerTapersWithCharge(t *testing.T) {
	if got := superchargerTaper(10); got != 1.0 {
		t.Fatalf("taper at 10%% = %f, want 1.0", got)
	}
	if got := superchargerTaper(30); got != 0.9 {
		t.Fatalf("taper at 30%% = %f, want 0.9", got)
	}
	if got := superchargerTaper(70); got != 0.8-20*0.005 {
		t.Fatalf("taper at 70%% = %f, want 0.7", got)
	}
}

func TestInterruptedWindowsFreezeCharge(t *testing.T) {
	g := newTestGenerator(5)
	p := g.GenerateInterrupted(ACLevel2, 40, 3600, 1.0, []Window{{Start: 100, End: 200}})

	for i := 100; i < 200; i++ {
		if p.Current[i] != 0 {
			t.Fatalf("sample %d: expected zero current in interruption, got %f", i, p.Current[i])
		}
		if p.SoC[i] != p.SoC[99] {
			t.Fatalf("sample %d: SoC %f moved during interruption (anchor %f)", i, p.SoC[i], p.SoC[99])
		}
	}
}

func TestInterruptedClampsOutOfRangeWindow(t *testing.T) {
	g := newTestGenerator(6)
	p := g.GenerateInterrupted(ACLevel2, 40, 600, 1.0, []Window{{Start: -50, End: 10_000}})
	for i, c := range p.Current {
		if c != 0 {
			t.Fatalf("sample %d: expected fully suppressed session, got %f", i, c)
		}
	}
}

func TestSmartChargingFollowsTariff(t *testing.T) {
	g := newTestGenerator(7)
	prices := DefaultTariff()

	// Starting at 18:00 in the evening peak with a healthy pack: no charging.
	peak := g.GenerateSmart(50, 90, 18, 1800, 1.0, prices)
	for i, c := range peak.Current {
		if c != 0 {
			t.Fatalf("sample %d: expected no peak-price charging at 50%% SoC, got %f", i, c)
		}
	}

	// Starting at 01:00 overnight: full power.
	night := g.GenerateSmart(50, 90, 1, 1800, 1.0, prices)
	if night.Current[100] <= 0 {
		t.Fatalf("expected overnight charging, got %f", night.Current[100])
	}
}

func TestSmartChargingNeverExceedsTarget(t *testing.T) {
	g := newTestGenerator(8)
	p := g.GenerateSmart(78, 80, 2, 6*3600, 1.0, DefaultTariff())
	for i, soc := range p.SoC {
		if soc > 80 {
			t.Fatalf("sample %d: SoC %f above target", i, soc)
		}
	}
	if !p.Completed {
		t.Fatal("expected session to complete")
	}
}

func TestDegradedCeilingDropsWithHealth(t *testing.T) {
	g := newTestGenerator(9)
	// 40% degradation caps the reachable charge at 95*0.6+5 = 62%.
	p := g.GenerateDegraded(DCFast, 50, 100, 12*3600, 1.0, 0.4)

	ceiling := 95*0.6 + 5
	for i, soc := range p.SoC {
		if soc > ceiling+0.5 {
			t.Fatalf("sample %d: SoC %f above degraded ceiling %f", i, soc, ceiling)
		}
	}
}

func TestDeterministicWithFixedSeed(t *testing.T) {
	a := newTestGenerator(42).Generate(Supercharger, 20, 80, 1800, 1.0)
	b := newTestGenerator(42).Generate(Supercharger, 20, 80, 1800, 1.0)
	for i := range a.Current {
		if a.Current[i] != b.Current[i] || a.SoC[i] != b.SoC[i] {
			t.Fatalf("sample %d differs between identically seeded runs", i)
		}
	}
}
