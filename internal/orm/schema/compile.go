package schema

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/model"
	"github.com/conduit-lang/datamap/internal/orm/relationships"
)

// Options are shared by every compiled model
type Options struct {
	Persistence model.Persistence
	Logger      *zap.Logger
	// Verifier is attached to email fields with dns_check; nil means field.MXVerifier
	Verifier field.Verifier
}

type compiledField struct {
	name string
	opts field.Options
}

type compiledReference struct {
	def  ReferenceDef
	tmpl field.Options
}

// Compile validates defs and registers one factory per model on reg.
// Option bags are decoded here, so an unknown key or type fails Compile
// rather than the first use. References to models that are not registered
// resolve lazily and fail at Ref time.
func Compile(defs []ModelDef, reg *model.Registry, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, def := range defs {
		factory, err := compileModel(def, reg, opts.Persistence, logger, opts.Verifier)
		if err != nil {
			return err
		}
		// build once so duplicate or colliding declarations surface now
		if _, err := factory(model.Defaults{}); err != nil {
			return err
		}
		if err := reg.Register(def.Name, factory); err != nil {
			return err
		}
		logger.Debug("model compiled", zap.String("model", def.Name),
			zap.Int("fields", len(def.Fields)), zap.Int("references", len(def.References)))
	}
	return nil
}

func compileModel(def ModelDef, reg *model.Registry, p model.Persistence, logger *zap.Logger, verifier field.Verifier) (model.Factory, error) {
	if def.Name == "" {
		return nil, model.NewConfigurationError("", "model", "name is required")
	}

	idField := def.IDField
	if idField == "" {
		idField = model.DefaultIDField
	}

	fields := make([]compiledField, 0, len(def.Fields))
	for _, fd := range def.Fields {
		if fd.Name == idField {
			return nil, model.NewConfigurationError(def.Name, "field "+fd.Name, "the id field is declared automatically")
		}
		o, err := field.Decode(fd.Options, verifier)
		if err != nil {
			return nil, &model.ConfigurationError{Model: def.Name, Subject: "field " + fd.Name, Reason: "invalid options", Err: err}
		}
		fields = append(fields, compiledField{name: fd.Name, opts: o})
	}

	refs := make([]compiledReference, 0, len(def.References))
	for _, rd := range def.References {
		if rd.Name == "" {
			return nil, model.NewConfigurationError(def.Name, "reference", "name is required")
		}
		tmpl, err := field.Decode(rd.Field, verifier)
		if err != nil {
			return nil, &model.ConfigurationError{Model: def.Name, Subject: "reference " + rd.Name, Reason: "invalid field options", Err: err}
		}
		refs = append(refs, compiledReference{def: rd, tmpl: tmpl})
	}

	return func(d model.Defaults) (*model.Model, error) {
		m := model.New(def.Name,
			model.WithTable(def.Table),
			model.WithIDField(idField),
			model.WithCaption(def.Caption),
			model.WithReadOnly(def.ReadOnly),
			model.WithDefaults(d),
			model.WithPersistence(p),
			model.WithRegistry(reg),
			model.WithLogger(logger),
		)
		for _, cf := range fields {
			if _, err := m.AddField(cf.name, cf.opts); err != nil {
				return nil, err
			}
		}
		for _, cr := range refs {
			_, err := relationships.Declare(m, cr.def.Name, relationships.HasOne{
				Target:     cr.def.Model,
				OurField:   cr.def.OurField,
				TheirField: cr.def.TheirField,
				Field:      cr.tmpl,
			})
			if err != nil {
				return nil, err
			}
		}
		return m, nil
	}, nil
}
