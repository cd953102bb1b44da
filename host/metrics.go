package host

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockberries/fundround/types"
)

const namespace = "fundround"

// Metrics are the host's prometheus collectors.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Events    *prometheus.CounterVec
	Proposals prometheus.Gauge
	Votes     prometheus.Gauge
	Transfers prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "requests_total",
			Help:      "Requests handled, by kind and result code.",
		}, []string{"kind", "code"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "events_total",
			Help:      "Events emitted by committed requests, by kind.",
		}, []string{"kind"}),
		Proposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "proposals",
			Help:      "Proposals created since the host started.",
		}),
		Votes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "votes",
			Help:      "Votes cast since the host started.",
		}),
		Transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "payout_transfers_total",
			Help:      "Payout transfers executed for distributions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Events, m.Proposals, m.Votes, m.Transfers)
	}
	return m
}

func (m *Metrics) observe(kind string, code uint32, resp types.Response) {
	m.Requests.WithLabelValues(kind, strconv.FormatUint(uint64(code), 10)).Inc()
	if code != 0 {
		return
	}
	for _, ev := range resp.Events {
		m.Events.WithLabelValues(ev.Kind).Inc()
		switch ev.Kind {
		case types.EventCreateProposal:
			m.Proposals.Inc()
		case types.EventCreateVote:
			m.Votes.Inc()
		}
	}
	m.Transfers.Add(float64(len(resp.Messages)))
}
