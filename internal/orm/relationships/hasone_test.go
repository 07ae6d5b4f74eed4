package relationships

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/hooks"
	"github.com/conduit-lang/datamap/internal/orm/model"
	"github.com/conduit-lang/datamap/internal/orm/persistence/memory"
)

func countryFactory(p model.Persistence) model.Factory {
	return func(d model.Defaults) (*model.Model, error) {
		m := model.New("country", model.WithTable("countries"), model.WithDefaults(d), model.WithPersistence(p))
		if _, err := m.AddField("name", field.Options{Type: field.TypeString}); err != nil {
			return nil, err
		}
		if _, err := m.AddField("code", field.Options{Type: field.TypeString}); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func newUser(t *testing.T, p model.Persistence) *model.Model {
	t.Helper()
	u := model.New("user", model.WithTable("users"), model.WithPersistence(p))
	_, err := u.AddField("name", field.Options{Type: field.TypeString})
	require.NoError(t, err)
	return u
}

func seedCountry(t *testing.T, p model.Persistence, name, code string) *model.Model {
	t.Helper()
	ctx := context.Background()
	c, err := countryFactory(p)(model.Defaults{})
	require.NoError(t, err)
	require.NoError(t, c.SetMany(ctx, map[string]any{"name": name, "code": code}))
	require.NoError(t, c.Save(ctx))
	return c
}

func TestDeclare_ProvisionsOurField(t *testing.T) {
	u := newUser(t, nil)
	before := len(u.Fields())

	ref, err := Declare(u, "country_id", HasOne{
		Model: countryFactory(nil),
		Field: field.Options{Type: field.TypeInteger, Caption: "Country", Mandatory: true},
	})
	require.NoError(t, err)

	assert.Len(t, u.Fields(), before+1)
	f, err := u.Field("country_id")
	require.NoError(t, err)
	assert.Equal(t, field.TypeInteger, f.Type)
	assert.Equal(t, "Country", f.Caption)
	assert.True(t, f.Mandatory)
	assert.Equal(t, "country_id", f.Reference)
	assert.Equal(t, "country_id", ref.OurFieldName())
	assert.Equal(t, "country_id", ref.Name())
}

func TestDeclare_ReusesExistingField(t *testing.T) {
	u := newUser(t, nil)
	existing, err := u.AddField("country", field.Options{Type: field.TypeString, Caption: "Existing"})
	require.NoError(t, err)
	before := len(u.Fields())

	_, err = Declare(u, "home", HasOne{
		Model:    countryFactory(nil),
		OurField: "country",
		Field:    field.Options{Type: field.TypeInteger},
	})
	require.NoError(t, err)

	f, err := u.Field("country")
	require.NoError(t, err)
	assert.Same(t, existing, f)
	assert.Equal(t, "Existing", f.Caption)
	assert.Len(t, u.Fields(), before)
	assert.False(t, u.HasField("home"))
}

func TestDeclare_MissingTarget(t *testing.T) {
	u := newUser(t, nil)

	_, err := Declare(u, "country_id", HasOne{})

	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
	assert.ErrorIs(t, err, ErrMissingTarget)
	assert.False(t, u.HasReference("country_id"))
	assert.False(t, u.HasField("country_id"))
}

func TestRef_LoadsByIdentity(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	lv := seedCountry(t, store, "Latvia", "LV")

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store), Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_id", lv.ID()))

	c, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)
	assert.True(t, c.Loaded())
	assert.Equal(t, "Latvia", c.Get("name"))
}

func TestRef_LogsResolution(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	lv := seedCountry(t, store, "Latvia", "LV")

	core, logs := observer.New(zap.DebugLevel)
	u := model.New("user", model.WithTable("users"), model.WithPersistence(store), model.WithLogger(zap.New(core)))
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store), Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)

	require.NoError(t, u.Set(ctx, "country_id", lv.ID()))
	_, err = u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)

	require.NoError(t, u.Set(ctx, "country_id", 404))
	_, err = u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)

	entries := logs.FilterMessage("reference resolved").All()
	require.Len(t, entries, 2)

	hit := entries[0].ContextMap()
	assert.Equal(t, "user", hit["model"])
	assert.Equal(t, "country_id", hit["reference"])
	assert.Equal(t, "country", hit["target"])
	assert.Equal(t, "country_id", hit["our_field"])
	assert.Equal(t, true, hit["loaded"])

	assert.Equal(t, false, entries[1].ContextMap()["loaded"])
}

func TestRef_TryLoadMissIsUnloaded(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store), Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_id", 404))

	c, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, c.Loaded())

	// still usable
	require.NoError(t, c.Set(ctx, "name", "Atlantis"))
}

func TestRef_AfterSaveSyncsNewIdentity(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	seedCountry(t, store, "Latvia", "LV")

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store), Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)

	c, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)
	assert.False(t, c.Loaded())

	require.NoError(t, c.Set(ctx, "name", "Estonia"))
	require.NoError(t, c.Save(ctx))

	assert.Equal(t, int64(2), c.ID())
	assert.Equal(t, c.ID(), u.Get("country_id"))
	assert.Contains(t, u.Dirty(), "country_id")
}

func TestRef_AfterDeleteNullsOurField(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	lv := seedCountry(t, store, "Latvia", "LV")

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store), Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_id", lv.ID()))

	c, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx))

	assert.Nil(t, u.Get("country_id"))
}

type failingDelete struct {
	*memory.Store
}

func (failingDelete) Delete(ctx context.Context, t model.Table, id any) error {
	return errors.New("foreign key constraint")
}

func TestRef_FailedDeleteKeepsOurField(t *testing.T) {
	store := failingDelete{Store: memory.New()}
	ctx := context.Background()
	lv := seedCountry(t, store, "Latvia", "LV")

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store), Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_id", lv.ID()))

	c, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)

	err = c.Delete(ctx)
	assert.True(t, model.IsPersistence(err))
	assert.Equal(t, lv.ID(), u.Get("country_id"))
}

func TestRef_TheirField(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	seedCountry(t, store, "Latvia", "LV")
	seedCountry(t, store, "Estonia", "EE")

	u := newUser(t, store)
	_, err := Declare(u, "country_code", HasOne{
		Model:      countryFactory(store),
		TheirField: "code",
		Field:      field.Options{Type: field.TypeString},
	})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_code", "EE"))

	c, err := u.Ref(ctx, "country_code", model.Defaults{})
	require.NoError(t, err)
	require.True(t, c.Loaded())
	assert.Equal(t, "Estonia", c.Get("name"))

	// editing the related record pushes the new code back to the owner
	require.NoError(t, c.Set(ctx, "code", "EST"))
	require.NoError(t, c.Save(ctx))
	assert.Equal(t, "EST", u.Get("country_code"))

	require.NoError(t, c.Delete(ctx))
	assert.Nil(t, u.Get("country_code"))
}

func TestRef_TheirFieldMiss(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	u := newUser(t, store)
	_, err := Declare(u, "country_code", HasOne{Model: countryFactory(store), TheirField: "code"})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_code", "XX"))

	c, err := u.Ref(ctx, "country_code", model.Defaults{})
	require.NoError(t, err)
	assert.False(t, c.Loaded())
}

func TestRef_TheirFieldUnknown(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	u := newUser(t, store)
	_, err := Declare(u, "country_code", HasOne{Model: countryFactory(store), TheirField: "iso"})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_code", "LV"))

	_, err = u.Ref(ctx, "country_code", model.Defaults{})
	assert.ErrorIs(t, err, model.ErrUnknownField)
}

func TestRef_HooksScopedPerInstance(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(store)})
	require.NoError(t, err)

	first, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)
	second, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, first.Hooks().Count(hooks.AfterSave))
	assert.Equal(t, 1, first.Hooks().Count(hooks.AfterDelete))
	assert.Equal(t, 1, second.Hooks().Count(hooks.AfterSave))
}

func TestRef_InheritsOwnerPersistence(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	u := newUser(t, store)
	_, err := Declare(u, "country_id", HasOne{Model: countryFactory(nil)})
	require.NoError(t, err)

	c, err := u.Ref(ctx, "country_id", model.Defaults{Table: "nations"})
	require.NoError(t, err)
	assert.Same(t, store, c.Persistence())
	assert.Equal(t, "nations", c.Table().Name)
}

func TestRef_ResolvesTargetThroughRegistry(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register("country", countryFactory(store)))
	lv := seedCountry(t, store, "Latvia", "LV")

	u := model.New("user", model.WithPersistence(store), model.WithRegistry(reg))
	_, err := Declare(u, "country_id", HasOne{Target: "country", Field: field.Options{Type: field.TypeInteger}})
	require.NoError(t, err)
	require.NoError(t, u.Set(ctx, "country_id", lv.ID()))

	c, err := u.Ref(ctx, "country_id", model.Defaults{})
	require.NoError(t, err)
	assert.Equal(t, "Latvia", c.Get("name"))

	_, err = Declare(u, "planet_id", HasOne{Target: "planet"})
	require.NoError(t, err)
	_, err = u.Ref(ctx, "planet_id", model.Defaults{})
	assert.True(t, model.IsConfiguration(err))
}

func TestRef_NoRegistry(t *testing.T) {
	u := newUser(t, memory.New())
	_, err := Declare(u, "country_id", HasOne{Target: "country"})
	require.NoError(t, err)

	_, err = u.Ref(context.Background(), "country_id", model.Defaults{})
	assert.ErrorIs(t, err, ErrNoRegistry)
}
