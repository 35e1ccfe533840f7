package api

type (
	ResponseError struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	// VisionError keeps the single-key error body the vision clients parse.
	VisionError struct {
		Error string `json:"error"`
	}
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusOK      = "ok"
)
