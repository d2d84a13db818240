// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics instruments internal/dispatch: one counter split by
// intercepted call name and routing outcome (virtual hit vs real
// passthrough), plus a registry-size gauge. Exported both as an OTel meter
// (for hosts that already run an OTel pipeline) and as a
// prometheus/client_golang registry (for hosts that just want to scrape
// /metrics), so either kind of host can wire in without the other.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// CallKey annotates which intercepted POSIX call produced the event.
	CallKey = "syscall"
	// RouteKey annotates whether the call was served virtually or
	// forwarded to the real OS.
	RouteKey = "route"
)

const (
	RouteVirtual = "virtual"
	RouteReal    = "real"
)

var dispatchMeter = otel.Meter("kompofs_dispatch")

var dispatchCalls, _ = dispatchMeter.Int64Counter(
	"kompofs/dispatch/calls",
	metric.WithDescription("Count of intercepted calls by syscall name and routing decision."),
	metric.WithUnit("1"))

// RecordCall increments the OTel counter for one intercepted call.
func RecordCall(ctx context.Context, syscallName, route string) {
	dispatchCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(CallKey, syscallName),
		attribute.String(RouteKey, route),
	))
}

// PrometheusCallsTotal is the client_golang counter vector a host can
// register into its own prometheus.Registerer to scrape alongside its own
// metrics, for hosts that have a Prometheus pipeline but no OTel bridge.
var PrometheusCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kompofs_dispatch_calls_total",
		Help: "Count of intercepted calls by syscall name and routing decision.",
	},
	[]string{CallKey, RouteKey},
)

// NewRegistrySizeGauge wraps a registry.Registry.Len-shaped func in a
// client_golang GaugeFunc the host registers once at startup.
func NewRegistrySizeGauge(len func() int) prometheus.Collector {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "kompofs_registry_open_descriptors",
			Help: "Number of virtual file descriptors currently open.",
		},
		func() float64 { return float64(len()) },
	)
}

// RecordPrometheus increments the client_golang counter for one call; kept
// separate from RecordCall (rather than merged into one call site) so a
// host that wires only one of the two exporters doesn't pay for the other.
func RecordPrometheus(syscallName, route string) {
	PrometheusCallsTotal.WithLabelValues(syscallName, route).Inc()
}
