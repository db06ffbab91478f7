package instrumentation

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Cache lookup results
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	// Gmail operations
	OperationList = "list"
	OperationGet  = "get"
)
