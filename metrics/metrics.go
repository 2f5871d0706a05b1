/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics holds the Prometheus collectors of the metadata store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/suparena/metadatastore/errors"
)

// Outcome label values.
const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "not_found"
	OutcomeConflict      = "conflict"
	OutcomeInvalid       = "invalid"
	OutcomeConfiguration = "configuration"
	OutcomeIntegrity     = "data_integrity"
	OutcomeError         = "error"
)

// Metrics records provider operations.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	QueryResults      *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered, which is convenient for tests and one-shot tools.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metadatastore_operations_total",
				Help: "Total number of metadata operations",
			},
			[]string{"entity_type", "backend", "operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "metadatastore_operation_duration_seconds",
				Help:    "Duration of metadata operations in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"entity_type", "backend", "operation"},
		),
		QueryResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "metadatastore_query_results",
				Help:    "Number of records returned by fixed queries",
				Buckets: prometheus.ExponentialBuckets(1, 4, 6),
			},
			[]string{"entity_type", "backend"},
		),
	}
}

// RecordOperation records one operation and its outcome.
func (m *Metrics) RecordOperation(entityType, backend, operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(entityType, backend, operation, Outcome(err)).Inc()
	m.OperationDuration.WithLabelValues(entityType, backend, operation).Observe(time.Since(started).Seconds())
}

// RecordQueryResults records the size of a fixed query result.
func (m *Metrics) RecordQueryResults(entityType, backend string, n int) {
	if m == nil {
		return
	}
	m.QueryResults.WithLabelValues(entityType, backend).Observe(float64(n))
}

// Outcome classifies err into an outcome label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.IsNotFound(err):
		return OutcomeNotFound
	case errors.IsAlreadyExists(err), errors.IsAmbiguous(err):
		return OutcomeConflict
	case errors.IsValidationError(err):
		return OutcomeInvalid
	case errors.IsConfigurationError(err):
		return OutcomeConfiguration
	case errors.IsDataIntegrityError(err):
		return OutcomeIntegrity
	}
	return OutcomeError
}
