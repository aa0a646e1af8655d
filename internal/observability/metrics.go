package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "registry",
		Name:      "users_created_total",
		Help:      "Number of users registered.",
	})
	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "ledger",
		Name:      "exercises_logged_total",
		Help:      "Number of exercises appended to the ledger.",
	})
	minutesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "ledger",
		Name:      "minutes_logged_total",
		Help:      "Sum of exercise durations appended to the ledger, in minutes.",
	})
	logQuerySize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "query",
		Name:      "log_entries_returned",
		Help:      "Number of entries returned per log query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})
)

func init() {
	prometheus.MustRegister(usersCreatedCounter, exercisesLoggedCounter, minutesLoggedCounter, logQuerySize, httpDuration)
}

// RecordUserCreated counts a successful registration.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExerciseLogged counts an appended exercise and its duration.
func RecordExerciseLogged(durationMin int) {
	exercisesLoggedCounter.Inc()
	minutesLoggedCounter.Add(float64(durationMin))
}

// RecordLogQuery observes the size of a log query result.
func RecordLogQuery(entries int) {
	logQuerySize.Observe(float64(entries))
}

// RecordHTTPRequest observes the latency of a served request.
func RecordHTTPRequest(method string, status int, elapsed time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
