package filestore

import "github.com/prometheus/client_golang/prometheus"

var bytesServed = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "olaf",
	Subsystem: "files",
	Name:      "bytes_served_total",
	Help:      "Total bytes served by GET /files/<id>/<name> downloads.",
})

func init() {
	prometheus.MustRegister(bytesServed)
}
