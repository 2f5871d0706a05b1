/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"

	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/storagemodels"
)

// Kind names a fixed query variant, e.g. "repositorymetadata.byOrganizationId".
type Kind string

// Fixed is an immutable fixed query descriptor. Implementations are plain value types
// carrying only the parameters their kind needs.
type Fixed interface {
	Kind() Kind
}

// All is the shared "every record of the type" descriptor.
type All struct{}

// Kind implements Fixed.
func (All) Kind() Kind { return "all" }

// ByID looks up records by identifier through a fixed query. Providers use it as the
// point-lookup fallback on backends that cannot address a record by id alone.
type ByID struct {
	ID string
}

// Kind implements Fixed.
func (ByID) Kind() Kind { return "byId" }

// Unsupported returns the configuration error raised when a translator receives a
// descriptor it does not recognize.
func Unsupported(t storagemodels.EntityType, backend storagemodels.Backend, q Fixed) error {
	kind := Kind("<nil>")
	if q != nil {
		kind = q.Kind()
	}
	return errors.NewConfigurationError(t.String(), string(backend)+".query",
		"fixed query %q (%T) has no translation", kind, q)
}

// Describe renders a descriptor for logs.
func Describe(q Fixed) string {
	if q == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%+v", q.Kind(), q)
}
