package metrics

import "strings"

// Prefix is prepended to every metric the service exports.
const Prefix = "docchunk"

// MetricName returns name with the service prefix applied once.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix+"_") {
		return name
	}
	return Prefix + "_" + name
}

// MetricNameWithSubsystem joins the prefix, a subsystem and a metric name.
func MetricNameWithSubsystem(subsystem, name string) string {
	if strings.HasPrefix(name, Prefix+"_") {
		return name
	}
	subsystem = strings.Trim(subsystem, "_")
	switch {
	case subsystem == "":
		return MetricName(name)
	case name == "":
		return Prefix + "_" + subsystem
	default:
		return Prefix + "_" + subsystem + "_" + name
	}
}
