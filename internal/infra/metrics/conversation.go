package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(authDenialsTotal, flowTransitionsTotal, sessionsCreatedTotal, loginsTotal)
}

var (
	authDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_auth_denials_total",
			Help: "Events rejected by the auth gate by reason.",
		},
		[]string{"reason"},
	)

	flowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_flow_transitions_total",
			Help: "Conversation flow steps by flow and result (started, reprompt, success, rejected, failed, cancelled).",
		},
		[]string{"flow", "result"},
	)

	sessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecombot_sessions_created_total",
			Help: "Session rows created on first contact.",
		},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_logins_total",
			Help: "Login and register attempts by command and result.",
		},
		[]string{"command", "result"},
	)
)

func IncAuthDenial(reason string) {
	authDenialsTotal.WithLabelValues(norm(reason)).Inc()
}

func IncFlow(flow, result string) {
	flowTransitionsTotal.WithLabelValues(norm(flow), norm(result)).Inc()
}

func IncSessionCreated() {
	sessionsCreatedTotal.Inc()
}

func IncAccount(command, result string) {
	loginsTotal.WithLabelValues(norm(command), norm(result)).Inc()
}
