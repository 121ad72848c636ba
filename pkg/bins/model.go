package bins

// Request is a captured HTTP request. Records are built once by the capture
// package and never modified afterwards.
type Request struct {
	ContentLength *uint64             `json:"content_length"`
	ContentType   *string             `json:"content_type"`
	Time          int64               `json:"time"` // epoch milliseconds
	Method        string              `json:"method"`
	Path          string              `json:"path"`
	Body          *string             `json:"body"`
	Headers       map[string][]string `json:"headers"`
	QueryString   map[string][]string `json:"query_string"`
}

// Bin is the ordered history of requests captured for one identifier.
type Bin []Request

// BinSummary is derived from a live bin on every read.
type BinSummary struct {
	ID           ID  `json:"id"`
	RequestCount int `json:"request_count"`
}
