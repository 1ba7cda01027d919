package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	StrategyResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amy_email_strategy_results_total",
			Help: "Strategy decisions by signal and result",
		},
		[]string{"signal", "result"},
	)

	ReceiverOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amy_email_receiver_outcomes_total",
			Help: "Receiver outcomes by signal, variant and outcome",
		},
		[]string{"signal", "variant", "outcome"},
	)

	EmailsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "amy_emails_dispatched_total",
			Help: "Scheduled emails locked and queued for delivery",
		},
	)

	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "amy_emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "amy_email_failures_total",
			Help: "Total failed emails",
		},
	)
)

func Init() {
	prometheus.MustRegister(StrategyResults)
	prometheus.MustRegister(ReceiverOutcomes)
	prometheus.MustRegister(EmailsDispatched)
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
}
