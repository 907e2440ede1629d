package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagetrail/internal/config"
	"pagetrail/internal/logging"
	"pagetrail/internal/repository"
	"pagetrail/internal/service"
	"pagetrail/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "backup",
		Short: "PageTrail profile backup tool",
		Long: `Export the local profile to a JSON file or merge a JSON backup into it.

The store is selected with STORE_BACKEND (sqlite, postgres, mysql or pebble)
and DB_PATH, DATABASE_URL or PEBBLE_PATH.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newExportCmd(), newImportCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openBackupService opens the configured store for a backup run
func openBackupService() (*service.BackupService, store.Store, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	s, err := store.Open(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return service.NewBackupService(repository.New(s), logger.Named("backup")), s, logger, nil
}

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the profile to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backupService, s, logger, err := openBackupService()
			if err != nil {
				return err
			}
			defer s.Close()

			// Generate default filename if not provided
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}

			dir := filepath.Dir(output)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer file.Close()

			logger.Info("Exporting profile", zap.String("path", output))
			if err := backupService.Export(cmd.Context(), file); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if info, err := file.Stat(); err == nil {
				logger.Info("Export complete", zap.Float64("size_kb", float64(info.Size())/1024))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge a JSON backup into the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("input file does not exist: %w", err)
			}
			defer file.Close()

			backupService, s, logger, err := openBackupService()
			if err != nil {
				return err
			}
			defer s.Close()

			logger.Info("Importing profile", zap.String("path", input))
			if err := backupService.Import(cmd.Context(), file); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file path (required)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
