package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	classificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "classifications",
		Name:      "created_total",
		Help:      "Total number of classifications created, synthetic type classifications included.",
	})

	spacesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "spaces",
		Name:      "created_total",
		Help:      "Total number of spaces committed broken down by space type.",
	}, []string{"type"})

	informationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "spaces",
		Name:      "informations_created_total",
		Help:      "Total number of space informations committed.",
	})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "batches",
		Name:      "total",
		Help:      "Total number of space batches broken down by result.",
	}, []string{"result"})

	invalidGroupReferences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "groups",
		Name:      "invalid_references_total",
		Help:      "Total number of group references that resolved to no valid group, by field.",
	}, []string{"field"})

	occupationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "occupations",
		Name:      "created_total",
		Help:      "Total number of occupations created.",
	})

	bridgesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "bridges",
		Name:      "created_total",
		Help:      "Total number of occupation bridges created broken down by kind.",
	}, []string{"kind"})

	exportRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spaces_migration",
		Subsystem: "export",
		Name:      "records_total",
		Help:      "Total number of records written broken down by document.",
	}, []string{"document"})
)

func recordBatch(ok bool) {
	result := "committed"
	if !ok {
		result = "failed"
	}
	batchesTotal.WithLabelValues(result).Inc()
}

func recordInvalidGroup(field string) {
	if field == "" {
		field = "other"
	}
	invalidGroupReferences.WithLabelValues(field).Inc()
}
