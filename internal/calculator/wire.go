package calculator

// Wire types for the fzd daemon API, shared by the remote adapter client and
// the daemon handlers.

// SubmitRequest carries one staged case to the daemon
type SubmitRequest struct {
	Name    string            `json:"name"`
	Model   string            `json:"model"`
	Command string            `json:"command"`
	Files   map[string]string `json:"files"`
}

// SubmitResponse returns the daemon-side case id
type SubmitResponse struct {
	ID string `json:"id"`
}

// CaseStatusResponse is one poll observation of a daemon-side case
type CaseStatusResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"` // running, done, failed
	ExitCode int    `json:"exit_code"`
	Reason   string `json:"reason,omitempty"`
}

// CaseFilesResponse returns the files a finished case produced
type CaseFilesResponse struct {
	Files map[string]string `json:"files"`
}

// CaseSummary is one entry of the daemon's case listing
type CaseSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Model  string `json:"model"`
	Status string `json:"status"`
}

// CaseListResponse lists staged cases, newest first
type CaseListResponse struct {
	Cases []CaseSummary `json:"cases"`
}

// ErrorResponse is the daemon's error body
type ErrorResponse struct {
	Error string `json:"error"`
}
