package metrics

import "testing"

func TestMetricName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "adds prefix", input: "requests_total", expected: "docchunk_requests_total"},
		{name: "keeps prefixed", input: "docchunk_custom_metric", expected: "docchunk_custom_metric"},
		{name: "blank returns prefix", input: "", expected: "docchunk_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MetricName(tt.input); got != tt.expected {
				t.Fatalf("MetricName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMetricNameWithSubsystem(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		subsystem  string
		metricName string
		expected   string
	}{
		{
			name:       "subsystem and name",
			subsystem:  "splitter",
			metricName: "chunks_total",
			expected:   "docchunk_splitter_chunks_total",
		},
		{
			name:       "subsystem trims underscore",
			subsystem:  "_extract_",
			metricName: "failures_total",
			expected:   "docchunk_extract_failures_total",
		},
		{name: "empty name", subsystem: "pipeline", metricName: "", expected: "docchunk_pipeline"},
		{
			name:       "already prefixed",
			subsystem:  "",
			metricName: "docchunk_existing_metric",
			expected:   "docchunk_existing_metric",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MetricNameWithSubsystem(tt.subsystem, tt.metricName); got != tt.expected {
				t.Fatalf("MetricNameWithSubsystem(%q, %q) = %q, want %q", tt.subsystem, tt.metricName, got, tt.expected)
			}
		})
	}
}
