package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RenameDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resym_rename_seconds",
		Help:    "Time spent renaming a single file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})

	RenamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resym_renames_total",
		Help: "Total number of per-file rename attempts by engine and outcome.",
	}, []string{"engine", "outcome"})

	OccurrencesRenamedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resym_occurrences_renamed_total",
		Help: "Total number of individual identifier occurrences rewritten.",
	})

	WriteRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resym_write_retries_total",
		Help: "Total number of retried atomic writes after transient I/O errors.",
	})

	BackupsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resym_backups_created_total",
		Help: "Total number of .bak files created before a first write.",
	})

	SubprocessTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resym_subprocess_timeouts_total",
		Help: "Total number of external analyzer invocations killed by timeout.",
	})
)
