// Package metrics exposes Prometheus instrumentation for the identity
// protocol: enrollment volume, challenge issuance, and verification outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnrollmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_enrollments_total",
		Help: "Total number of completed enrollments.",
	})

	RevocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_revocations_total",
		Help: "Total number of credential revocations.",
	})

	ChallengesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_challenges_issued_total",
		Help: "Total number of issued verification challenges.",
	})

	// VerificationsTotal tracks verification outcomes by result. Repeated
	// "consumed" or "invalid_signature" results against one participant are
	// a replay signal for downstream alerting.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_verifications_total",
		Help: "Total number of verification attempts by outcome.",
	}, []string{"result"})
)
