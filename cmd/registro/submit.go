package main

import (
	"fmt"

	"servicredit-registro/internal/registro"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func submitCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a form data JSON document and send it to the registrar API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			zapLog, log := newLogger(cfg)
			defer zapLog.Sync()

			deps, err := formDependencies(cfg, log)
			if err != nil {
				return err
			}
			data, err := readFormData(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := registro.Restore(registro.Snapshot{
				ID:      uuid.NewString(),
				Variant: deps.Options.Variant.ID,
				Data:    data,
			}, deps)
			if err != nil {
				return err
			}

			res, err := s.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.Err != nil {
				return fmt.Errorf("submission %s: %w", res.Outcome, res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "form data JSON file, - for stdin")
	return cmd
}
