package driving

import (
	"math/rand"
	"testing"
)

func TestZeroDurationYieldsEmptyProfile(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	for _, mode := range []Mode{ModeCity, ModeHighway, ModeAggressive, ModeEco, ModeMixed} {
		if got := g.Generate(mode, 0, 1.0); len(got) != 0 {
			t.Fatalf("%s: expected empty profile for zero duration, got %d samples", mode, len(got))
		}
	}
}

func TestProfileLengthMatchesDuration(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(2)))
	for _, mode := range []Mode{ModeCity, ModeHighway, ModeAggressive, ModeEco} {
		got := g.Generate(mode, 600, 1.0)
		if len(got) != 600 {
			t.Fatalf("%s: expected 600 samples, got %d", mode, len(got))
		}
	}
}

func TestCityStartsStopped(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(3)))
	profile := g.City(60, 1.0)

	// The first dwell at a stop lasts at least 30 seconds.
	for i := 0; i < 30; i++ {
		if profile[i] != 0 {
			t.Fatalf("sample %d: expected 0 A while stopped, got %f", i, profile[i])
		}
	}
}

func TestHighwayEntryRampDischarges(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(4)))
	profile := g.Highway(300, 1.0)

	for i := 0; i < 30; i++ {
		if profile[i] >= 0 {
			t.Fatalf("sample %d: entry ramp should discharge, got %f", i, profile[i])
		}
	}
	// Ramp power tapers from 80 kW down as speed builds.
	if profile[0] >= profile[29] {
		t.Fatalf("ramp should ease off: first %f, last %f", profile[0], profile[29])
	}
}

func TestAggressiveCycleHasRegenPhase(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(5)))
	profile := g.Aggressive(120, 1.0)

	regen := 0
	for _, c := range profile {
		if c > 0 {
			regen++
		}
	}
	// Braking occupies 5 of every 60 seconds; noise may flip a few samples.
	if regen < 5 {
		t.Fatalf("expected regen samples in aggressive cycle, got %d", regen)
	}
}

func TestEcoCurrentsStayModerate(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(6)))
	profile := g.Eco(1800, 1.0)

	maxDischargeKW := 30 * 1000 / nominalVoltage
	maxRegenKW := 25 * 1000 / nominalVoltage
	for i, c := range profile {
		if c < -maxDischargeKW-0.001 || c > maxRegenKW+0.001 {
			t.Fatalf("sample %d: eco current %f exceeds gentle limits", i, c)
		}
	}
}

func TestMixedDoesNotExceedRequestedSamples(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(7)))
	profile := g.Mixed(3600, 1.0)
	if len(profile) > 3600 {
		t.Fatalf("mixed profile overruns duration: %d samples", len(profile))
	}
	if len(profile) < 3200 {
		t.Fatalf("mixed profile far short of duration: %d samples", len(profile))
	}
}

func TestDeterministicWithFixedSeed(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(99))).Generate(ModeMixed, 1200, 1.0)
	b := NewGenerator(rand.New(rand.NewSource(99))).Generate(ModeMixed, 1200, 1.0)

	if len(a) != len(b) {
		t.Fatalf("profile lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}
