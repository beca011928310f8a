// internal/workers/matching/process-expired-posting/models.go
package processexpiredposting

type Input struct {
	PostingID string `json:"postingId"`
}

type Output struct {
	PostingID   string `json:"postingId"`
	FinalStatus string `json:"finalStatus"` // closed or processed
	Scored      int    `json:"scored"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}
