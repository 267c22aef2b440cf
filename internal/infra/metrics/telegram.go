package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramEventsTotal,
		telegramCommandsTotal,
		telegramRateLimitTriggeredTotal,
		handlerErrorsTotal,
		laneQueueDepth,
	)
}

var (
	telegramEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_telegram_events_total",
			Help: "Inbound chat events by kind (message, callback, location).",
		},
		[]string{"kind"},
	)

	telegramCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_telegram_commands_total",
			Help: "Slash commands received.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecombot_telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	handlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_handler_errors_total",
			Help: "Events that ended in the catch-all error reply.",
		},
		[]string{"kind", "cause"}, // cause=error|panic
	)

	laneQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecombot_lane_queue_depth",
			Help: "Buffered events waiting in each per-user worker lane.",
		},
		[]string{"lane"},
	)
)

func IncTelegramEvent(kind string) {
	telegramEventsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncHandlerError(kind, cause string) {
	handlerErrorsTotal.WithLabelValues(norm(kind), norm(cause)).Inc()
}

func SetLaneQueueDepth(lane string, depth int) {
	laneQueueDepth.WithLabelValues(lane).Set(float64(depth))
}
