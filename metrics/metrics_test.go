/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/errors"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeNotFound, Outcome(errors.NewNotFoundError("accesstoken", "k")))
	assert.Equal(t, OutcomeConflict, Outcome(errors.NewAlreadyExistsError("accesstoken", "k")))
	assert.Equal(t, OutcomeConflict, Outcome(errors.NewAmbiguousError("teamjoinrequest", "1", 2)))
	assert.Equal(t, OutcomeInvalid, Outcome(errors.NewValidationError("id", "required")))
	assert.Equal(t, OutcomeConfiguration, Outcome(errors.NewConfigurationError("accesstoken", "table.columns", "missing")))
	assert.Equal(t, OutcomeIntegrity, Outcome(errors.NewDataIntegrityError("accesstoken", "scopes", "gap")))
	assert.Equal(t, OutcomeError, Outcome(fmt.Errorf("boom")))
}

func TestRecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordOperation("accesstoken", "memory", "get", time.Now(), nil)
	m.RecordOperation("accesstoken", "memory", "get", time.Now(), errors.NewNotFoundError("accesstoken", "k"))
	m.RecordOperation("accesstoken", "memory", "get", time.Now(), nil)
	m.RecordQueryResults("accesstoken", "memory", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("accesstoken", "memory", "get", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("accesstoken", "memory", "get", OutcomeNotFound)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation("accesstoken", "memory", "get", time.Now(), nil)
		m.RecordQueryResults("accesstoken", "memory", 1)
	})
}
