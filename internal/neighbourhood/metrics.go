package neighbourhood

import "github.com/prometheus/client_golang/prometheus"

var peersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "olaf",
	Subsystem: "relay",
	Name:      "peers_connected",
	Help:      "Number of currently connected neighbour peer links.",
})

func init() {
	prometheus.MustRegister(peersConnected)
}
