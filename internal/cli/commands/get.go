package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/datamap/internal/cli/ui"
	"github.com/conduit-lang/datamap/internal/orm/model"
)

// NewGetCommand creates the get command
func NewGetCommand(load RuntimeLoader) *cobra.Command {
	var (
		ref  string
		dump bool
	)

	cmd := &cobra.Command{
		Use:   "get <model> <id>",
		Short: "Load a record and print its fields",
		Long: `Load one record of a declared model by id and print its fields.

Examples:
  datamap get country 1
  datamap get country 1 --ref capital
  datamap get country 1 --dump`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain := noColor(cmd)
			name, rawID := args[0], args[1]

			rt, err := load(cmd)
			if err != nil {
				return report(cmd, ui.ConfigProblem(err.Error()), err)
			}
			defer rt.Close()

			if _, ok := rt.Registry.Get(name); !ok {
				return report(cmd, ui.ModelNotFound(name, ui.FindSimilar(name, rt.Registry.Names(), nil)),
					fmt.Errorf("model %s is not registered", name))
			}

			m, err := rt.Registry.New(name, model.Defaults{})
			if err != nil {
				return err
			}

			if err := m.Load(cmd.Context(), parseID(rawID)); err != nil {
				if model.IsNotFound(err) {
					return report(cmd, ui.RecordNotFound(name, rawID), err)
				}
				return err
			}

			if ref != "" {
				related, err := m.Ref(cmd.Context(), ref, model.Defaults{})
				if err != nil {
					if errors.Is(err, model.ErrUnknownReference) {
						return report(cmd, ui.ReferenceNotFound(name, ref, ui.FindSimilar(ref, m.References(), nil)), err)
					}
					return err
				}
				if !related.Loaded() {
					fmt.Fprint(cmd.OutOrStdout(), ui.Info(fmt.Sprintf("%s.%s is not set", name, ref), plain))
					return nil
				}
				m = related
			}

			if dump {
				spew.Fdump(cmd.OutOrStdout(), m.Row())
				return nil
			}
			return writeRecord(cmd.OutOrStdout(), m, plain)
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "follow a reference and print the related record")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the raw row with Go types")

	return cmd
}

// parseID treats numeric ids as integers and everything else as text
func parseID(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

func writeRecord(out io.Writer, m *model.Model, plain bool) error {
	ui.Header(out, fmt.Sprintf("%s #%v", m.Caption(), m.ID()), plain)

	table := ui.NewKeyValueTable(out, plain)
	for _, f := range m.Fields() {
		value, err := formatValue(m.Get(f.Name))
		if err != nil {
			return err
		}
		table.AddRow(f.Label(), value)
	}
	table.Render()
	return nil
}
