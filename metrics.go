package client

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/job"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsure_client",
			Name:      "requests_total",
			Help:      "Claims-service requests by route and status code (0 for transport failures).",
		},
		[]string{"route", "code"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsure_client",
			Name:      "mutations_total",
			Help:      "Claim mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	staleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsure_client",
			Name:      "stale_responses_total",
			Help:      "Fetch responses dropped because a newer request had been issued.",
		},
		[]string{"op"},
	)
)

func observeRequest(req *http.Request, resp *http.Response, err error) {
	code := "0"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	requestsTotal.WithLabelValues(req.URL.Path, code).Inc()
}

func observeMutation(op job.Op, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if k, ok := clerrors.KindOf(err); ok {
			outcome = k.String()
		}
	}
	mutationsTotal.WithLabelValues(string(op), outcome).Inc()
}

func observeStale(op string) { staleResponsesTotal.WithLabelValues(op).Inc() }
