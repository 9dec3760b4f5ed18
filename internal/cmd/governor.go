package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticketless/ticketless/internal/config"
	"github.com/ticketless/ticketless/internal/core/governor"
	"github.com/ticketless/ticketless/internal/output"
)

// Governor state lives inside the running server process, so these commands
// go through its admin HTTP endpoints rather than reading anything local.

var (
	governorOutput string
	governorServer string
	governorToken  string
)

var governorCmd = &cobra.Command{
	Use:   "governor",
	Short: "Inspect or reset the outbound-call governor on a running server",
}

var governorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show live rate-limit windows, pending calls, and cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(governorOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		body, err := adminRequest(cfg, http.MethodGet, "/admin/governor/status")
		if err != nil {
			return err
		}

		var snapshot struct {
			RequestCounts map[string]governor.WindowState `json:"request_counts"`
			Pending       int                             `json:"pending"`
			Cached        int                             `json:"cached"`
		}
		if err := json.Unmarshal(body, &snapshot); err != nil {
			return fmt.Errorf("decode status response: %w", err)
		}

		rendered, err := output.NewFormatter(format).FormatGovernorStatus(governor.Status{
			RequestCounts: snapshot.RequestCounts,
			Pending:       snapshot.Pending,
			Cached:        snapshot.Cached,
		})
		if err != nil {
			return err
		}

		fmt.Println(rendered)
		return nil
	},
}

var governorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all governor windows, caches, and pending-call bookkeeping",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if _, err := adminRequest(cfg, http.MethodPost, "/admin/governor/reset"); err != nil {
			return err
		}

		fmt.Println("governor state cleared")
		return nil
	},
}

func adminRequest(cfg *config.Config, method, path string) ([]byte, error) {
	token := strings.TrimSpace(governorToken)
	if token == "" {
		token = cfg.Server.AdminToken
	}
	if token == "" {
		return nil, fmt.Errorf("no admin token configured (set server.admin_token or --token)")
	}

	base := strings.TrimSpace(governorServer)
	if base == "" {
		base = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	base = strings.TrimRight(base, "/")

	req, err := http.NewRequest(method, base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read admin response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("admin request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func init() {
	governorCmd.PersistentFlags().StringVar(&governorServer, "server", "", "Server base URL (default from server.host/server.port config)")
	governorCmd.PersistentFlags().StringVar(&governorToken, "token", "", "Admin bearer token (default from server.admin_token config)")
	governorStatusCmd.Flags().StringVar(&governorOutput, "output-format", string(output.FormatTable), "Output format: table|json")

	governorCmd.AddCommand(governorStatusCmd)
	governorCmd.AddCommand(governorResetCmd)
	rootCmd.AddCommand(governorCmd)
}
