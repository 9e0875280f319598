package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	receiptsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nfce_receipts_ingested_total",
		Help: "Receipts successfully extracted and stored.",
	})
	duplicatesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nfce_duplicates_rejected_total",
		Help: "Submissions rejected because the access key was already stored.",
	})
	ingestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nfce_ingest_failures_total",
		Help: "Failed submissions by stage.",
	}, []string{"stage"})
)
