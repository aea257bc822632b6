package vault

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	identitiesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "identity",
		Name:      "generated_total",
		Help:      "Identities created by generation or import.",
	})

	identitiesRotated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "identity",
		Name:      "rotated_total",
		Help:      "Identity rotations completed.",
	})

	unlockAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "identity",
		Name:      "unlock_attempts_total",
		Help:      "Password unlock attempts by outcome.",
	}, []string{"outcome"})

	hardeningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "identity",
		Name:      "hardening_seconds",
		Help:      "Wall time of a password hardening run.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

func observeGeneration() { identitiesGenerated.Inc() }

func observeRotation() { identitiesRotated.Inc() }

func observeUnlock(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	unlockAttempts.WithLabelValues(outcome).Inc()
}

func observeHardening(d time.Duration) {
	hardeningDuration.Observe(d.Seconds())
}
