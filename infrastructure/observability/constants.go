package observability

import "backersync/domain/entities"

// Metric name prefixes
const (
	MetricPrefix = "backersync"
)

// Metric names
const (
	// Open Collective metrics
	BackersFetchedTotal = MetricPrefix + ".backers.fetched_total"

	// Sync metrics
	RolesGrantedTotal   = MetricPrefix + ".roles.granted_total"
	BackersSkippedTotal = MetricPrefix + ".backers.skipped_total"
	RunsTotal           = MetricPrefix + ".runs_total"
)

// Label keys
const (
	LabelRole   = "role"
	LabelReason = "reason"
	LabelResult = "result"
)

// Run results
const (
	RunResultCompleted = entities.RunResultCompleted
	RunResultAborted   = entities.RunResultAborted
)
