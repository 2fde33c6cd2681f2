package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placement_http_request_duration_seconds",
			Help:    "Duration of placement API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_http_requests_total",
			Help: "Total number of placement API requests",
		},
		[]string{"method", "status"},
	)

	// Inventory write metrics
	inventoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_inventory_writes_total",
			Help: "Total number of inventory write operations",
		},
		[]string{"operation"}, // replace, update, delete, delete_all
	)

	inventoryConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placement_inventory_conflicts_total",
			Help: "Total number of inventory writes rejected because a class was in use",
		},
	)
)
