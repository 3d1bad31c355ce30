package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownVehicle is returned when a vehicle identifier is not present in
// the catalog.
var ErrUnknownVehicle = errors.New("unknown vehicle id")

// VehicleSpec describes the battery pack of one vehicle model. Specs are
// immutable; one instance is shared by every simulation of that vehicle.
type VehicleSpec struct {
	VehicleID           string  `json:"vehicle_id"`
	Make                string  `json:"make"`
	Model               string  `json:"model"`
	NominalCapacityKWh  float64 `json:"nominal_capacity_kwh"`
	NominalVoltage      float64 `json:"nominal_voltage"`
	MaxVoltage          float64 `json:"max_voltage"`
	MinVoltage          float64 `json:"min_voltage"`
	MaxChargeCurrent    float64 `json:"max_charge_current"`    // A, positive
	MaxDischargeCurrent float64 `json:"max_discharge_current"` // A, negative
	CellConfiguration   string  `json:"cell_configuration"`
	ThermalMass         float64 `json:"thermal_mass"`        // kg
	InternalResistance  float64 `json:"internal_resistance"` // ohms
}

// ConsumptionWhPerKm returns the typical consumption used for range
// estimation. Make specific constants, guarded against zero.
func (s VehicleSpec) ConsumptionWhPerKm() float64 {
	if s.Make == "Tesla" {
		return 180
	}
	return 150
}

// Validate checks that the electrical constants are usable.
func (s VehicleSpec) Validate() error {
	if s.NominalCapacityKWh <= 0 {
		return fmt.Errorf("vehicle %s: capacity must be positive", s.VehicleID)
	}
	if s.MaxVoltage <= s.MinVoltage {
		return fmt.Errorf("vehicle %s: max voltage must exceed min voltage", s.VehicleID)
	}
	return nil
}

// vehicleCatalog is the static spec catalog. Entries are copied on lookup so
// callers can never mutate the catalog.
var vehicleCatalog = map[string]VehicleSpec{
	"VEH001": {
		VehicleID:           "VEH001",
		Make:                "Tesla",
		Model:               "Model 3",
		NominalCapacityKWh:  82.0,
		NominalVoltage:      350.0,
		MaxVoltage:          420.0,
		MinVoltage:          300.0,
		MaxChargeCurrent:    200.0,
		MaxDischargeCurrent: -250.0,
		CellConfiguration:   "96s46p",
		ThermalMass:         400.0,
		InternalResistance:  0.05,
	},
	"VEH002": {
		VehicleID:           "VEH002",
		Make:                "Nissan",
		Model:               "Leaf",
		NominalCapacityKWh:  62.0,
		NominalVoltage:      350.0,
		MaxVoltage:          403.0,
		MinVoltage:          300.0,
		MaxChargeCurrent:    100.0,
		MaxDischargeCurrent: -150.0,
		CellConfiguration:   "96s2p",
		ThermalMass:         300.0,
		InternalResistance:  0.08,
	},
}

// SpecFor looks up a vehicle spec by identifier.
func SpecFor(vehicleID string) (VehicleSpec, error) {
	spec, ok := vehicleCatalog[vehicleID]
	if !ok {
		return VehicleSpec{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, vehicleID)
	}
	return spec, nil
}

// VehicleIDs returns the catalog identifiers in stable order.
func VehicleIDs() []string {
	ids := make([]string, 0, len(vehicleCatalog))
	for id := range vehicleCatalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
