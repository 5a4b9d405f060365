// Copyright 2026 DeepSearchStack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package metrics provides two complementary views of pipeline health:
continuously-exported Prometheus series (Collector) and bounded in-memory
windows for cheap ad hoc percentile queries (Recorder).

# Overview

Collector registers Prometheus counters/histograms/gauges via promauto,
isolated per namespace, labeled for Grafana-style dashboards and alerts.

Recorder keeps fixed-capacity ring buffers of recent requests and
per-provider per-minute throughput samples, from which a point-in-time
Report (counts, success/error rates, p50/p95/p99 latency, RPM/RPS, error
histogram, cache hit rate, rate-limit hits, breaker trips) can be computed
without querying an external time-series store.

# Core types

  - Collector: Prometheus-backed exporter, grouped by HTTP, search
    fan-out, scrape, LLM synthesis, pipeline run, cache, admission
    control, and database concerns.
  - Recorder: ring-buffer recorder + Report() snapshot generator.

# Capabilities

  - HTTP: request count, duration, request/response size, grouped by
    method/path/status (status bucketed to 2xx/3xx/4xx/5xx).
  - Search fan-out: per-provider call count and duration.
  - Scrape stage: call count and duration.
  - LLM synthesis: request count, duration, token usage (prompt/
    completion), cost, grouped by provider/model.
  - Pipeline runs: end-to-end run count/duration, per-stage duration.
  - Cache: hit/miss counts, grouped by cache type.
  - Admission control: rate-limit hits by layer, circuit breaker trips
    by target.
  - Database: open/idle connection gauges, query duration histogram.
*/
package metrics
