package metrics

// StageDurationBuckets defines latency buckets for extraction and splitting stages.
var StageDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// HTTPDurationBuckets defines latency buckets for HTTP request duration metrics.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// ChunkCountBuckets defines buckets for the number of chunks produced per document.
var ChunkCountBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// HTTPSizeBucketBoundaries defines request body size buckets in bytes.
var HTTPSizeBucketBoundaries = []float64{100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000}
