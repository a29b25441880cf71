package metrics

import "github.com/prometheus/client_golang/prometheus"

// MatchingMetrics exposes counters/histograms for the session-matching flows.
type MatchingMetrics struct {
	searchTotal       *prometheus.CounterVec
	sessionIssueTotal *prometheus.CounterVec
	alternativesCount prometheus.Histogram
	waitlistJoinTotal *prometheus.CounterVec
	llmFallbackTotal  prometheus.Counter
	turnLatency       *prometheus.HistogramVec
}

func NewMatchingMetrics(reg prometheus.Registerer) *MatchingMetrics {
	m := &MatchingMetrics{
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kairo",
			Subsystem: "matching",
			Name:      "search_total",
			Help:      "Total session searches by outcome",
		}, []string{"kind", "outcome"}),
		sessionIssueTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kairo",
			Subsystem: "matching",
			Name:      "session_issue_total",
			Help:      "Requested sessions that could not be booked, by issue",
		}, []string{"issue"}),
		alternativesCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kairo",
			Subsystem: "matching",
			Name:      "alternatives_returned",
			Help:      "Number of scored alternatives returned per request",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		waitlistJoinTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kairo",
			Subsystem: "waitlist",
			Name:      "join_total",
			Help:      "Waitlist join attempts by status",
		}, []string{"status"}),
		llmFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kairo",
			Subsystem: "conversation",
			Name:      "llm_fallback_total",
			Help:      "Turns answered with the deterministic fallback template",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kairo",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.searchTotal, m.sessionIssueTotal, m.alternativesCount,
		m.waitlistJoinTotal, m.llmFallbackTotal, m.turnLatency,
	)
	return m
}

func (m *MatchingMetrics) ObserveSearch(kind, outcome string) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *MatchingMetrics) ObserveSessionIssue(issue string) {
	if m == nil {
		return
	}
	m.sessionIssueTotal.WithLabelValues(issue).Inc()
}

func (m *MatchingMetrics) ObserveAlternatives(count int) {
	if m == nil {
		return
	}
	m.alternativesCount.Observe(float64(count))
}

func (m *MatchingMetrics) ObserveWaitlistJoin(status string) {
	if m == nil {
		return
	}
	m.waitlistJoinTotal.WithLabelValues(status).Inc()
}

func (m *MatchingMetrics) ObserveLLMFallback() {
	if m == nil {
		return
	}
	m.llmFallbackTotal.Inc()
}

func (m *MatchingMetrics) ObserveTurnLatency(state string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(state).Observe(seconds)
}
