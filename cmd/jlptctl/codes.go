package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/jlpt-api/internal/pkg/export"
	pgRepo "github.com/yourusername/jlpt-api/internal/repository/postgres"
	"github.com/yourusername/jlpt-api/internal/service"
)

const expiresLayout = "2006-01-02"

func newCodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Generate and export premium redeem codes",
	}
	cmd.AddCommand(newCodesGenerateCmd())
	cmd.AddCommand(newCodesExportCmd())
	return cmd
}

func newCodesGenerateCmd() *cobra.Command {
	var (
		count   int
		days    int
		expires string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of redeem codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expiresAt, err := parseExpires(expires)
			if err != nil {
				return err
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if days == 0 {
				days = e.cfg.Billing.DefaultPlanDays
			}
			billing := service.NewBillingService(pgRepo.NewRedeemCodeRepo(e.db), service.NewNoopEmailService(e.log), e.cfg.Billing.CodePrefix, e.log)
			codes, err := billing.GenerateCodes(cmd.Context(), 0, count, days, expiresAt)
			if err != nil {
				return err
			}
			for _, c := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), c.Code)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of codes")
	cmd.Flags().IntVar(&days, "days", 0, "premium days per code (default from config)")
	cmd.Flags().StringVar(&expires, "expires", "", "code expiry date, YYYY-MM-DD")
	return cmd
}

func newCodesExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all redeem codes to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := formatFromPath(out)
			if err != nil {
				return err
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			repo := pgRepo.NewRedeemCodeRepo(e.db)
			admin := service.NewAdminService(nil, nil, repo, e.log)
			table, err := admin.ExportCodes(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := export.Write(f, format, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d codes to %s\n", len(table.Rows), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "codes.xlsx", "output file (.csv or .xlsx)")
	return cmd
}

// parseExpires разбирает дату окончания; пустая строка - без срока
func parseExpires(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(expiresLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid --expires %q, expected YYYY-MM-DD", value)
	}
	// Код действует до конца указанного дня
	end := t.Add(24*time.Hour - time.Second)
	return &end, nil
}

// formatFromPath выбирает формат выгрузки по расширению файла
func formatFromPath(path string) (string, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !export.IsSupported(format) {
		return "", fmt.Errorf("unsupported output extension %q, use .csv or .xlsx", filepath.Ext(path))
	}
	return format, nil
}
