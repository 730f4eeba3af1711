package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenPairsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_pairs_issued_total",
			Help: "Total number of access/refresh token pairs issued",
		},
		[]string{"reason"},
	)

	tokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_validations_total",
			Help: "Total number of token validations",
		},
		[]string{"outcome"},
	)

	tokenReuseDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_token_reuse_detected_total",
			Help: "Total number of rotated-out refresh tokens presented again",
		},
	)

	purgedTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_tokens_purged_total",
			Help: "Total number of expired auth tokens removed by the purge sweep",
		},
	)
)

// RecordPairIssued counts a freshly issued token pair. Reason is "login",
// "sign-up", "refresh" or "password-change".
func RecordPairIssued(reason string) {
	tokenPairsIssuedTotal.WithLabelValues(reason).Inc()
}

// RecordValidation counts a validation attempt by outcome ("ok" or "denied").
func RecordValidation(ok bool) {
	outcome := "denied"
	if ok {
		outcome = "ok"
	}
	tokenValidationsTotal.WithLabelValues(outcome).Inc()
}

func RecordReuseDetected() {
	tokenReuseDetectedTotal.Inc()
}

func RecordPurgedTokens(count int64) {
	purgedTokensTotal.Add(float64(count))
}
