package models

// Message is a single assistant message from the current billing period feed.
type Message struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	ReportID  *int64 `json:"report_id,omitempty"`
}

// HasReport reports whether the message references a generated report.
func (m Message) HasReport() bool {
	return m.ReportID != nil
}

// Report describes a generated report and its fixed credit price.
type Report struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CreditCost float64 `json:"credit_cost"`
}

// UsageRecord is the per-message usage row served to clients.
// ReportName is nil (and omitted from JSON) when no report was resolved.
type UsageRecord struct {
	MessageID   int64   `json:"message_id"`
	Timestamp   string  `json:"timestamp"`
	ReportName  *string `json:"report_name,omitempty"`
	CreditsUsed float64 `json:"credits_used"`
}

// ReportNameOrEmpty returns the resolved report name or "".
func (r UsageRecord) ReportNameOrEmpty() string {
	if r.ReportName == nil {
		return ""
	}
	return *r.ReportName
}

// ChartBucket is one UTC calendar day of aggregated credits.
type ChartBucket struct {
	Date    string  `json:"date"`
	Credits float64 `json:"credits"`
}

// MessagesResponse mirrors the upstream current-period payload.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}
