package observability

// Metric name prefixes
const (
	MetricPrefix = "netrunner"
)

// Metric names
const (
	// Command execution metrics
	CommandsExecutedTotal   = MetricPrefix + ".commands.executed_total"
	CommandExecuteDuration  = MetricPrefix + ".commands.execute_duration"
	ExecuteRetriesTotal     = MetricPrefix + ".commands.execute_retries_total"
	UnlocksPurchasedTotal   = MetricPrefix + ".commands.unlocks_purchased_total"

	// HTTP metrics
	HTTPRequestsTotal   = MetricPrefix + ".http.requests_total"
	HTTPRequestDuration = MetricPrefix + ".http.request_duration"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	// Common labels
	LabelType      = "type"
	LabelEventType = "event_type"

	// Command labels
	LabelCommand = "command"
	LabelReason  = "reason"

	// HTTP labels
	LabelRoute  = "route"
	LabelStatus = "status"

	// Database labels
	LabelRepository = "repository"
	LabelMethod     = "method"
)
