package models

// KeyError is a per-key rejection reported by the store.
type KeyError struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkDeleteReport aggregates every chunk of a bulk delete.
type BulkDeleteReport struct {
	Deleted []string
	Errors  []KeyError
	// FailedChunks counts delete calls that failed as a whole. Their keys
	// appear in neither Deleted nor Errors.
	FailedChunks int
	// Unaccounted lists keys from successful calls the store reported in
	// neither list.
	Unaccounted []string
}

// BulkDeleteResponse is the JSON body returned for a bulk delete.
type BulkDeleteResponse struct {
	Success      bool       `json:"success"`
	Deleted      int        `json:"deleted"`
	Errors       []KeyError `json:"errors"`
	FailedChunks int        `json:"failedChunks,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// NewBulkDeleteResponse shapes a report for the API.
func NewBulkDeleteResponse(r *BulkDeleteReport) BulkDeleteResponse {
	errors := r.Errors
	if errors == nil {
		errors = []KeyError{}
	}
	return BulkDeleteResponse{
		Success:      r.FailedChunks == 0,
		Deleted:      len(r.Deleted),
		Errors:       errors,
		FailedChunks: r.FailedChunks,
	}
}
