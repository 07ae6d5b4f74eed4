package commands

import (
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/model"
)

func TestModelsCommand_Table(t *testing.T) {
	out, _, err := execute(t, seededLoader(t), "models")
	require.NoError(t, err)

	assert.Contains(t, out, "city (table cities)")
	assert.Contains(t, out, "country (table countries)")
	assert.Regexp(t, `id\s+-\s+system`, out)
	assert.Regexp(t, `name\s+string\s+mandatory`, out)
	assert.Regexp(t, `capital_id\s+integer\s+ref:capital_id`, out)
	assert.Contains(t, out, "→ capital_id: has one city via capital_id")
}

func TestModelsCommand_JSON(t *testing.T) {
	out, _, err := execute(t, seededLoader(t), "models", "--format", "json")
	require.NoError(t, err)

	var summaries []modelSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)

	country := summaries[1]
	assert.Equal(t, "country", country.Name)
	assert.Equal(t, "Country", country.Caption)
	assert.Equal(t, "id", country.IDField)

	names := make([]string, len(country.Fields))
	for i, f := range country.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"id", "name", "contact", "capital_id"}, names)

	require.Len(t, country.References, 1)
	assert.Equal(t, referenceSummary{Name: "capital_id", Target: "city", OurField: "capital_id"}, country.References[0])
}

func TestModelsCommand_Empty(t *testing.T) {
	load := func(cmd *cobra.Command) (*Runtime, error) {
		return &Runtime{Logger: zap.NewNop(), Registry: model.NewRegistry()}, nil
	}

	out, _, err := execute(t, load, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "No models declared")
}

func TestModelsCommand_BadFormat(t *testing.T) {
	_, _, err := execute(t, seededLoader(t), "models", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}
