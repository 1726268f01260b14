package addrcache

// Metrics.
const (
	MetricAdd       = "addrcache_add"
	MetricDuplicate = "addrcache_duplicate"
	MetricRemove    = "addrcache_remove"
	MetricTake      = "addrcache_take"
	MetricExpired   = "addrcache_expired"
	MetricItems     = "addrcache_items"
)
