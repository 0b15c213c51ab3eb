package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ResultsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bracket_results_recorded_total", Help: "Total match results recorded or corrected"},
	)
	ResultsCleared = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bracket_results_cleared_total", Help: "Total match results cleared by an admin"},
	)
	CascadeInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bracket_cascade_invalidations_total", Help: "Total downstream results cleared by a correction"},
	)
	PicksSaved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bracket_picks_saved_total", Help: "Total picks accepted"},
	)
	PicksRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bracket_picks_rejected_total", Help: "Total picks rejected, by reason"},
		[]string{"reason"},
	)
)

func Register() {
	prometheus.MustRegister(ResultsRecorded, ResultsCleared, CascadeInvalidations, PicksSaved, PicksRejected)
}
