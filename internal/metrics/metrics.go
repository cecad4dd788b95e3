// Package metrics is the observability collaborator for the ledger. Counters
// live here, outside the engine's transactional path, and are incremented at
// the API and sweeper edges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts ledger operations by name and outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creditledger_operations_total",
		Help: "Ledger operations processed, by operation and outcome.",
	}, []string{"operation", "outcome"})

	// RetriesTotal counts transaction attempts repeated after a conflict.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creditledger_operation_retries_total",
		Help: "Transaction attempts retried after an optimistic conflict or transient store failure.",
	}, []string{"operation"})

	// InsufficientTotal counts rejections caused by low balance.
	InsufficientTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_insufficient_credits_total",
		Help: "Operations rejected because available credits were too low.",
	})

	// SweeperResetsTotal counts resets applied by the background sweeper.
	SweeperResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_sweeper_resets_total",
		Help: "Monthly rollovers applied by the background sweeper.",
	})
)
