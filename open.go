/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metadatastore

import (
	"context"
	"fmt"

	"github.com/suparena/metadatastore/config"
	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/logging"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Open builds the adapters cfg selects and returns a store routing every entity type of
// reg to its configured backend. The registry is sealed and every routing is validated.
// Adapters are not initialized; call Store.Initialize.
func Open(ctx context.Context, cfg *config.Config, reg *registry.Registry, opts ...StoreOption) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := reg.ValidateAll(); err != nil {
		return nil, err
	}
	reg.Seal()

	opts = append([]StoreOption{WithLogger(logging.New(cfg.Logger, nil))}, opts...)
	s := NewStore(reg, nil, opts...)

	adapters := make(map[storagemodels.Backend]datastore.Adapter)
	for _, b := range cfg.Backends() {
		a, err := openAdapter(ctx, cfg, reg, b, s)
		if err != nil {
			_ = closeAll(adapters)
			return nil, err
		}
		adapters[b] = a
	}

	s.defaultAdapter = adapters[cfg.Backend]
	for name, b := range cfg.Overrides {
		if err := s.RegisterAdapter(storagemodels.EntityType(name), adapters[b]); err != nil {
			_ = closeAll(adapters)
			return nil, err
		}
	}
	if err := s.Validate(); err != nil {
		_ = closeAll(adapters)
		return nil, err
	}

	s.logger.Info().
		Str("backend", string(cfg.Backend)).
		Int("overrides", len(cfg.Overrides)).
		Int("entityTypes", len(reg.EntityTypes())).
		Msg("metadata store opened")
	return s, nil
}

func openAdapter(ctx context.Context, cfg *config.Config, reg *registry.Registry, b storagemodels.Backend, s *Store) (datastore.Adapter, error) {
	logger := logging.Component(s.logger, "adapter")

	switch b {
	case storagemodels.BackendMemory:
		return memory.New(reg, memory.WithLogger(logger)), nil

	case storagemodels.BackendTable:
		client, err := ddb.NewClient(ctx, ddb.ClientOptions{
			Region:          cfg.Table.Region,
			AccessKeyID:     cfg.Table.AccessKeyID,
			SecretAccessKey: cfg.Table.SecretAccessKey,
			Endpoint:        cfg.Table.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return ddb.New(client, reg,
			ddb.WithTablePrefix(cfg.Table.TablePrefix),
			ddb.WithCreateTables(cfg.Table.CreateTables),
			ddb.WithLogger(logger),
		), nil

	case storagemodels.BackendRelational:
		db, err := relational.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		return relational.New(db, relational.Dialect(cfg.Database.Type), reg, relational.WithLogger(logger)), nil
	}
	return nil, fmt.Errorf("unsupported backend %q", b)
}

func closeAll(adapters map[storagemodels.Backend]datastore.Adapter) error {
	var first error
	for _, a := range adapters {
		if c, ok := a.(datastore.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
