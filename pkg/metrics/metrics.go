// Package metrics documents the Prometheus metrics exposed by the catalog
// client. Metrics are defined in their owning packages (client, retry,
// cache) via promauto to keep them next to the code that drives them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer used by the module.
var Registry = prometheus.DefaultRegisterer

// Metrics Reference
//
// Request metrics (pkg/client):
//   - catalog_requests_total{endpoint, status} (Counter): requests by
//     endpoint and HTTP status (or network_error)
//   - catalog_request_duration_seconds{endpoint} (Histogram): logical
//     request duration, retries included
//   - catalog_errors_total{class} (Counter): terminal failures by class
//     (client, server, rate_limit, network)
//
// Retry metrics (pkg/retry):
//   - catalog_retries_total{operation} (Counter): retry attempts
//   - catalog_retry_backoff_seconds{operation} (Histogram): backoff delays
//   - catalog_retry_exhausted_total{operation} (Counter): exhausted cycles
//
// Cache metrics (pkg/cache):
//   - catalog_cache_hits_total{backend} (Counter)
//   - catalog_cache_misses_total{backend} (Counter)
//   - catalog_cache_evictions_total (Counter): memory capacity evictions
//   - catalog_cache_errors_total{operation} (Counter)
//
// Example queries:
//
//   # Cache hit rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Terminal error rate by class
//   rate(catalog_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
