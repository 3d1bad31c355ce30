package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batterysim/core/behavior"
	"github.com/kilianp07/batterysim/core/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the built-in catalogs",
}

var catalogVehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "List the known vehicles",
	RunE:  runCatalogVehicles,
}

var catalogProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the driver profiles",
	RunE:  runCatalogProfiles,
}

func init() {
	catalogCmd.AddCommand(catalogVehiclesCmd)
	catalogCmd.AddCommand(catalogProfilesCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogVehicles(cmd *cobra.Command, args []string) error {
	for _, id := range model.VehicleIDs() {
		spec, err := model.SpecFor(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s %s\t%.0f kWh\n", id, spec.Make, spec.Model, spec.NominalCapacityKWh)
	}
	return nil
}

func runCatalogProfiles(cmd *cobra.Command, args []string) error {
	for _, name := range behavior.ProfileNames() {
		p, err := behavior.ProfileFor(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\ttarget %.0f%%\tmin %.0f%%\t%.1f charges/week\n",
			name, p.TargetSoC, p.PreferredSoCMin, p.WeeklyChargeBudget)
	}
	return nil
}
