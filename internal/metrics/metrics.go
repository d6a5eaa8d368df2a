package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch writer metrics
var (
	SinkFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sink_flushes_total",
		Help: "The total number of sink flushes by outcome",
	}, []string{"sink", "outcome"})

	SinkFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sink_flush_duration_seconds",
		Help:    "Time taken to flush buffered rows",
		Buckets: prometheus.DefBuckets,
	}, []string{"sink"})

	SinkBufferedBlocks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sink_buffered_blocks",
		Help: "The number of blocks currently buffered by a sink",
	}, []string{"sink"})
)

// Stream writer metrics
var (
	StreamBackpressureWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_backpressure_waits_total",
		Help: "The number of writes that waited for the output channel to drain",
	})

	StreamBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_bytes_written_total",
		Help: "The number of bytes handed to the output channel",
	})
)

// Throughput metrics
var (
	RowsPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sink_rows_per_second",
		Help: "Rows written per second over the recent flush window",
	})

	ProcessedRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sink_processed_rows_total",
		Help: "The total number of rows processed by the sink",
	})

	LastProcessedTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sink_last_processed_timestamp_seconds",
		Help: "Unix time of the last progress report",
	})
)
