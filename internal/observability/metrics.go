package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MSagaPhaseDuration       MetricKey = "saga_phase_duration_seconds"
	MNotificationsPublished  MetricKey = "notifications_published_total"
	MNotificationsProcessed  MetricKey = "notifications_processed_total"
	MNotificationsRequeued   MetricKey = "notifications_requeued_total"
)
