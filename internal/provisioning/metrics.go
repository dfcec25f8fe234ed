package provisioning

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "workspaced_provisioning_stage_total",
	Help: "Provisioning pipeline stage outcomes.",
}, []string{"stage", "outcome"})

func observeStage(stage Stage, outcome string) {
	stageTotal.WithLabelValues(string(stage), outcome).Inc()
}
