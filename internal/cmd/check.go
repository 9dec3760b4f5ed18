package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ticketless/ticketless/internal/output"
)

var (
	checkOutput string
	checkOut    string
	checkOutDir string
	checkNoDB   bool
)

var checkCmd = &cobra.Command{
	Use:   "check PLATE",
	Short: "Check compliance for a plate",
	Long: `Check compliance for a license plate: open parking tickets from the
city open-data portal plus any stored renewal obligations.

Repeated checks for the same plate within the cache window are served
locally without hitting the portal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plate := strings.TrimSpace(args[0])
		if plate == "" {
			return fmt.Errorf("plate is required")
		}

		format, err := output.ParseFormat(checkOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gov := buildGovernor(cfg)
		socrata, _, _ := buildCivicClients(cfg, gov)

		compliance := buildCompliance(socrata, nil)
		if !checkNoDB {
			db, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close() // nolint:errcheck // best-effort cleanup
			compliance = buildCompliance(socrata, db)
		}

		report, err := compliance.Report(cmd.Context(), plate)
		if err != nil {
			return err
		}

		outPath := strings.TrimSpace(checkOut)
		outDir := strings.TrimSpace(checkOutDir)
		if outPath != "" && outDir != "" {
			return fmt.Errorf("--out and --out-dir are mutually exclusive")
		}
		if outDir != "" {
			outDir, err = ensureOutDir(outDir)
			if err != nil {
				return err
			}
			outPath = filepath.Join(outDir, fmt.Sprintf("check.%s.%s", sanitizeFilename(plate), outputExtension(format)))
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		rendered, err := output.NewFormatter(format).FormatReport(report)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(sink.writer, rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	checkCmd.Flags().StringVar(&checkOut, "out", "", "Write output to a file (default stdout)")
	checkCmd.Flags().StringVar(&checkOutDir, "out-dir", "", "Write output to a directory")
	checkCmd.Flags().BoolVar(&checkNoDB, "no-db", false, "Skip the local store; report tickets only")
}
