package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/datamap/internal/cli/ui"
	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/model"
	"github.com/conduit-lang/datamap/internal/orm/relationships"
)

type modelSummary struct {
	Name       string             `json:"name"`
	Caption    string             `json:"caption"`
	Table      string             `json:"table"`
	IDField    string             `json:"id_field"`
	ReadOnly   bool               `json:"read_only,omitempty"`
	Fields     []fieldSummary     `json:"fields"`
	References []referenceSummary `json:"references,omitempty"`
}

type fieldSummary struct {
	Name  string   `json:"name"`
	Type  string   `json:"type,omitempty"`
	Flags []string `json:"flags,omitempty"`
}

type referenceSummary struct {
	Name       string `json:"name"`
	Target     string `json:"target,omitempty"`
	OurField   string `json:"our_field"`
	TheirField string `json:"their_field,omitempty"`
}

// NewModelsCommand creates the models command
func NewModelsCommand(load RuntimeLoader) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List declared models",
		Long:  "List the models declared in the config file with their fields and references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unsupported format %q: expected table or json", format)
			}

			rt, err := load(cmd)
			if err != nil {
				return report(cmd, ui.ConfigProblem(err.Error()), err)
			}
			defer rt.Close()

			summaries, err := summarizeModels(rt.Registry)
			if err != nil {
				return err
			}

			if format == "json" {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(summaries)
			}
			return writeModelsTable(cmd.OutOrStdout(), summaries, noColor(cmd))
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: json or table")

	return cmd
}

func summarizeModels(reg *model.Registry) ([]modelSummary, error) {
	names := reg.Names()
	out := make([]modelSummary, 0, len(names))
	for _, name := range names {
		m, err := reg.New(name, model.Defaults{})
		if err != nil {
			return nil, err
		}
		out = append(out, summarizeModel(m))
	}
	return out, nil
}

func summarizeModel(m *model.Model) modelSummary {
	s := modelSummary{
		Name:     m.Name(),
		Caption:  m.Caption(),
		Table:    m.Table().Name,
		IDField:  m.IDField(),
		ReadOnly: m.ReadOnly(),
	}

	for _, f := range m.Fields() {
		s.Fields = append(s.Fields, fieldSummary{
			Name:  f.Name,
			Type:  f.Type.String(),
			Flags: fieldFlags(f),
		})
	}

	for _, name := range m.References() {
		ref, err := m.Reference(name)
		if err != nil {
			continue
		}
		rs := referenceSummary{Name: name}
		if h, ok := ref.(*relationships.HasOne); ok {
			rs.Target = h.Target
			rs.OurField = h.OurFieldName()
			rs.TheirField = h.TheirField
		}
		s.References = append(s.References, rs)
	}

	return s
}

func fieldFlags(f *field.Field) []string {
	var flags []string
	if f.System {
		flags = append(flags, "system")
	}
	if f.Mandatory {
		flags = append(flags, "mandatory")
	}
	if f.Required {
		flags = append(flags, "required")
	}
	if f.ReadOnly {
		flags = append(flags, "read_only")
	}
	if f.NeverPersist {
		flags = append(flags, "never_persist")
	}
	if f.Reference != "" {
		flags = append(flags, "ref:"+f.Reference)
	}
	return flags
}

func writeModelsTable(out io.Writer, summaries []modelSummary, plain bool) error {
	if len(summaries) == 0 {
		fmt.Fprint(out, ui.Info("No models declared", plain))
		return nil
	}

	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(out)
		}
		title := fmt.Sprintf("%s (table %s)", s.Name, s.Table)
		if s.ReadOnly {
			title += " read-only"
		}
		ui.Header(out, title, plain)

		table := ui.NewTable(out, []string{"FIELD", "TYPE", "FLAGS"}, &ui.TableOptions{NoColor: plain})
		for _, f := range s.Fields {
			typ := f.Type
			if typ == "" {
				typ = "-"
			}
			table.AddRow(f.Name, typ, strings.Join(f.Flags, ","))
		}
		table.Render()

		for _, r := range s.References {
			line := fmt.Sprintf("  → %s: has one %s via %s", r.Name, r.Target, r.OurField)
			if r.TheirField != "" {
				line += " = " + r.TheirField
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}
