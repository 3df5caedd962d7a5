package constants

// Exchange names.
const (
	ExchangePricingEvents = "pricing_events"
)

// Queue names.
const (
	QueueUploadBatches = "upload_batches"
)

// Routing keys.
const (
	RoutingKeyUploadBatches = "pricing.uploads.process"
)

const (
	FinalDLXExchange   = "upload_batches_final_dlx"
	FinalDLQ           = "upload_batches_final_dlq"
	FinalDLQRoutingKey = "uploads.dlq.key"
)
