// Package metrics exposes Prometheus instrumentation for the submission
// ledger: topic creation and submission outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TopicsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_topics_created_total",
		Help: "Total number of created topics.",
	})

	// SubmissionsTotal tracks submission outcomes by result. A high
	// "duplicate" rate against one topic indicates retry storms or abuse.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_submissions_total",
		Help: "Total number of submission attempts by outcome.",
	}, []string{"result"})
)
