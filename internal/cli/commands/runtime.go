package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/cli/config"
	"github.com/conduit-lang/datamap/internal/logging"
	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/model"
	"github.com/conduit-lang/datamap/internal/orm/persistence/memory"
	"github.com/conduit-lang/datamap/internal/orm/persistence/redisstore"
	"github.com/conduit-lang/datamap/internal/orm/persistence/sqlstore"
	"github.com/conduit-lang/datamap/internal/orm/schema"
)

// Runtime is everything a command needs to work with models
type Runtime struct {
	Config      *config.Config
	Logger      *zap.Logger
	Persistence model.Persistence
	Registry    *model.Registry
	Verifier    field.Verifier

	closers []func() error
}

// Close releases backend connections and flushes the logger
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
	return errors.Join(errs...)
}

// RuntimeLoader builds a Runtime for a command invocation
type RuntimeLoader func(cmd *cobra.Command) (*Runtime, error)

// LoadRuntime reads the configuration named by --config, connects the
// configured backend and compiles the declared models.
func LoadRuntime(cmd *cobra.Command) (*Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Registry: model.NewRegistry(),
		Verifier: &field.MXVerifier{Timeout: cfg.Email.DNSTimeout},
	}

	if err := rt.connect(); err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.File != "" {
		defs, err := schema.ParseFile(cfg.File)
		if err != nil {
			rt.Close()
			return nil, err
		}
		err = schema.Compile(defs, rt.Registry, schema.Options{
			Persistence: rt.Persistence,
			Logger:      logger,
			Verifier:    rt.Verifier,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	return rt, nil
}

func (r *Runtime) connect() error {
	cfg := r.Config
	switch {
	case cfg.Persistence.Driver == "memory":
		r.Persistence = memory.New(memory.WithLogger(r.Logger))
	case cfg.Persistence.Driver == "redis":
		store, err := redisstore.New(redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, r.Logger)
		if err != nil {
			return err
		}
		r.Persistence = store
		r.closers = append(r.closers, store.Close)
	case cfg.Persistence.IsSQL():
		store, db, err := sqlstore.Open(cfg.Persistence.Driver, cfg.Persistence.DSN, sqlstore.WithLogger(r.Logger))
		if err != nil {
			return err
		}
		r.Persistence = store
		r.closers = append(r.closers, db.Close)
	default:
		return fmt.Errorf("unsupported persistence driver: %s", cfg.Persistence.Driver)
	}

	r.Logger.Debug("persistence ready", zap.String("driver", cfg.Persistence.Driver))
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
