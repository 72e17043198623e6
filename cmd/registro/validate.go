package main

import (
	"fmt"

	"servicredit-registro/internal/registro"

	"github.com/spf13/cobra"
)

func validateCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a form data JSON document against the configured variant",
		Long: `Reads a form data JSON document (same field names as the web form) from
--file or stdin, runs the field rules of the configured variant and prints
the validation errors. Exits non-zero when the form is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			opts, err := formOptions(cfg)
			if err != nil {
				return err
			}
			data, err := readFormData(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			errs := registro.NewValidator(opts).Validate(data)
			if err := printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"valid":  errs.Valid(),
				"errors": errs,
			}); err != nil {
				return err
			}
			if !errs.Valid() {
				return fmt.Errorf("form has %d invalid field(s)", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "form data JSON file, - for stdin")
	return cmd
}
