// Package metrics provides Prometheus metrics for the Clover engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks canonicalization runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of canonicalization runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of canonicalization runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// MembersCanonicalized tracks canonical members produced per run
	MembersCanonicalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "members_canonicalized_total",
			Help:      "Total number of canonical members produced",
		},
	)

	// MembersClassified tracks classification decisions by status and confidence
	MembersClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "members_classified_total",
			Help:      "Total number of classification decisions by status and confidence",
		},
		[]string{"status", "confidence"},
	)

	// RowsExcluded tracks raw rows excluded by reason
	RowsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "rows_excluded_total",
			Help:      "Total number of raw rows excluded by reason",
		},
		[]string{"reason"},
	)

	// OrphanEvidence tracks evidence rows whose legacy id matched no raw row
	OrphanEvidence = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "orphan_evidence_total",
			Help:      "Total number of evidence rows whose legacy id matched no raw member row",
		},
	)

	// DuplicateGroupsDetected tracks duplicate candidate groups per run
	DuplicateGroupsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "engine",
			Name:      "duplicate_groups_total",
			Help:      "Total number of duplicate candidate groups detected",
		},
	)

	// EventsPublished tracks Kafka events published by type
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of Kafka events published by event type",
		},
		[]string{"event_type"},
	)
)
