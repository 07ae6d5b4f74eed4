// Package relationships declares to-one links between models and resolves
// them into live related model instances.
//
// Resolving a HasOne registers hooks on the related instance that keep the
// owner's linking field consistent: deleting the related record nulls the
// owner's field, and saving it copies the related identity (or their field)
// back into the owner.
package relationships

import (
	"context"

	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/hooks"
	"github.com/conduit-lang/datamap/internal/orm/model"
)

// HasOne links an owner to one related record
type HasOne struct {
	// Target names the related model in the owner's registry
	Target string
	// Model builds the related model directly and takes precedence over Target
	Model model.Factory
	// OurField is the owner-side field. It defaults to the reference name.
	OurField string
	// TheirField is the related-side field matched against OurField.
	// Empty means the related model's identity.
	TheirField string
	// Field is the template used when OurField has to be provisioned
	Field field.Options

	name     string
	ourField string
}

// Declare attaches a copy of h to owner under name
func Declare(owner *model.Model, name string, h HasOne) (*HasOne, error) {
	ref := &h
	if err := owner.AddReference(name, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// Init resolves the owner-side field and provisions it when missing
func (h *HasOne) Init(owner *model.Model, name string) error {
	if h.Target == "" && h.Model == nil {
		return &model.ConfigurationError{
			Model:   owner.Name(),
			Subject: "reference " + name,
			Reason:  "cannot declare",
			Err:     ErrMissingTarget,
		}
	}

	h.name = name
	h.ourField = h.OurField
	if h.ourField == "" {
		h.ourField = name
	}

	tmpl := h.Field
	tmpl.Reference = name
	_, err := owner.EnsureField(h.ourField, tmpl)
	return err
}

// Name returns the reference name
func (h *HasOne) Name() string {
	return h.name
}

// OurFieldName returns the resolved owner-side field name
func (h *HasOne) OurFieldName() string {
	return h.ourField
}

// Ref builds the related instance, loads the record the owner points at if
// there is one, and installs the consistency hooks. A value matching no
// record yields an unloaded instance.
func (h *HasOne) Ref(ctx context.Context, owner *model.Model, d model.Defaults) (*model.Model, error) {
	rel, err := h.related(owner, d)
	if err != nil {
		return nil, err
	}
	if rel.Persistence() == nil {
		rel.SetPersistence(owner.Persistence())
	}

	ourField := h.ourField
	rel.OnHook(hooks.AfterDelete, func(ctx context.Context, _ *model.Model) error {
		return owner.Sync(ctx, ourField, nil)
	})

	ourValue := owner.Get(ourField)

	if theirField := h.TheirField; theirField != "" {
		if !model.IsEmpty(ourValue) {
			if err := rel.TryLoadBy(ctx, theirField, ourValue); err != nil {
				return nil, err
			}
		}
		rel.OnHook(hooks.AfterSave, func(ctx context.Context, r *model.Model) error {
			return owner.Sync(ctx, ourField, r.Get(theirField))
		})
		h.logResolved(owner, rel, ourValue)
		return rel, nil
	}

	if !model.IsEmpty(ourValue) {
		if err := rel.TryLoad(ctx, ourValue); err != nil {
			return nil, err
		}
	}
	rel.OnHook(hooks.AfterSave, func(ctx context.Context, r *model.Model) error {
		return owner.Sync(ctx, ourField, r.ID())
	})
	h.logResolved(owner, rel, ourValue)
	return rel, nil
}

func (h *HasOne) logResolved(owner *model.Model, rel *model.Model, ourValue any) {
	owner.Logger().Debug("reference resolved",
		zap.String("reference", h.name),
		zap.String("target", rel.Name()),
		zap.String("our_field", h.ourField),
		zap.Any("value", ourValue),
		zap.Bool("loaded", rel.Loaded()),
	)
}

func (h *HasOne) related(owner *model.Model, d model.Defaults) (*model.Model, error) {
	if h.Model != nil {
		return h.Model(d)
	}
	reg := owner.Registry()
	if reg == nil {
		return nil, &model.ConfigurationError{
			Model:   owner.Name(),
			Subject: "reference " + h.name,
			Reason:  "cannot resolve " + h.Target,
			Err:     ErrNoRegistry,
		}
	}
	return reg.New(h.Target, d)
}
