package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mhp-content/internal/service"
)

func (a *app) validateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every article in a file against its category schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := service.ValidateFile(a.outputPath(file))
			if err != nil {
				return err
			}
			printValidation(cmd.OutOrStdout(), report)
			if report.Invalid > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalidArticles, report.Invalid, report.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Article file (default from config)")
	return cmd
}

func (a *app) uploadCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Validate and upsert every article in a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := service.NewUploadService(s, a.log).UploadFile(cmd.Context(), a.outputPath(file))
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "Upload", report)
			return reportErr(report)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Article file (default from config)")
	return cmd
}

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite stored content blocks into the current field layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := service.NewMigrationService(s, a.log).MigrateArticles(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "Migration", report)
			return reportErr(report)
		},
	}
}
