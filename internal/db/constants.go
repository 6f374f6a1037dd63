package db

// Storage format of timestamps written by this package.
const timestampLayout = "2006-01-02 15:04:05"

// Keys of the accountant_state table.
const (
	stateKeyTrackedDay       = "tracked_day"
	stateKeyTotalSteps       = "total_steps"
	stateKeyLastCounterValue = "last_counter_value"
	stateKeyAnchorHour       = "anchor_hour"
	stateKeyStepsAtAnchor    = "steps_at_anchor"
)
