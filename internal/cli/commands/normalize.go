package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/datamap/internal/cli/ui"
	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/validation"
)

// NewNormalizeCommand creates the normalize command
func NewNormalizeCommand() *cobra.Command {
	var (
		allowMultiple bool
		separators    string
		includeNames  bool
		dnsCheck      bool
		required      bool
		null          bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <type> [value]",
		Short: "Normalize a value with a field type",
		Long: `Run a single value through the normalization rules of a field type and
print the canonical result.

Examples:
  datamap normalize email " Jane@Example.com "
  datamap normalize email "a@x.com; b@y.com" --allow-multiple --separator ";"
  datamap normalize email "a@x.com, b@y.com; c@z.com" --allow-multiple --separator ",;"
  datamap normalize email "Jane <jane@example.com>" --include-names
  datamap normalize date 2024-03-01
  datamap normalize integer --null --required`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return report(cmd, ui.ConfigProblem(err.Error()), err)
			}

			raw := map[string]any{"type": args[0], "required": required}
			if !cmd.Flags().Changed("dns-check") {
				dnsCheck = cfg.Email.DNSCheck
			}
			if dnsCheck {
				raw["dns_check"] = true
			}
			if allowMultiple {
				raw["allow_multiple"] = true
			}
			if includeNames {
				raw["include_names"] = true
			}
			if separators != "" {
				raw["separator"] = separators
			}

			opts, err := field.Decode(raw, &field.MXVerifier{Timeout: cfg.Email.DNSTimeout})
			if err != nil {
				return err
			}

			var value any
			switch {
			case null:
			case len(args) == 2:
				value = args[1]
			default:
				return fmt.Errorf("a value or --null is required")
			}

			f := field.New("value", opts)
			var normalized any
			run := func() error {
				var err error
				normalized, err = f.Normalize(cmd.Context(), value)
				return err
			}
			if dnsCheck && opts.Type == field.TypeEmail && value != nil {
				err = ui.WithSpinner(cmd.ErrOrStderr(), "Verifying email domains", noColor(cmd), run)
			} else {
				err = run()
			}
			if err != nil {
				if verr, ok := validation.AsError(err); ok {
					return report(cmd, ui.InvalidValue(verr.Field, verr.Message, verr.Kind.String()), err)
				}
				return err
			}

			out, err := formatValue(normalized)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "accept more than one email address")
	cmd.Flags().StringVar(&separators, "separator", "", "email separator characters, any of which splits entries (default \",\")")
	cmd.Flags().BoolVar(&includeNames, "include-names", false, "accept display names like \"Jane <jane@example.com>\"")
	cmd.Flags().BoolVar(&dnsCheck, "dns-check", false, "verify that email domains publish MX records (default from email.dns_check)")
	cmd.Flags().BoolVar(&required, "required", false, "reject null and empty values")
	cmd.Flags().BoolVar(&null, "null", false, "normalize a null value")

	return cmd
}

// formatValue renders a normalized value for terminal output
func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case time.Time:
		return val.Format(time.RFC3339), nil
	case string:
		return val, nil
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return fmt.Sprint(val), nil
	}
}
