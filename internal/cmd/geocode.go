package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode ADDRESS",
	Short: "Resolve a street address to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := strings.TrimSpace(strings.Join(args, " "))
		if address == "" {
			return fmt.Errorf("address is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gov := buildGovernor(cfg)
		_, geocoder, _ := buildCivicClients(cfg, gov)

		result, err := geocoder.Geocode(cmd.Context(), address)
		if err != nil {
			return err
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
