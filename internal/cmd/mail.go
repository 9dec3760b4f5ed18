package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var mailStatusCmd = &cobra.Command{
	Use:   "mail-status MAIL_ID",
	Short: "Check delivery status of a compliance letter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mailID := strings.TrimSpace(args[0])
		if mailID == "" {
			return fmt.Errorf("mail id is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gov := buildGovernor(cfg)
		_, _, mail := buildCivicClients(cfg, gov)

		status, err := mail.Status(cmd.Context(), mailID)
		if err != nil {
			return err
		}

		payload, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailStatusCmd)
}
