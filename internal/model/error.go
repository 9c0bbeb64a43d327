package model

// AppError is the error payload shared by every stage (profile parsing,
// document decoding, fetching, the override pipeline) and the HTTP layer.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	URL     string `json:"url,omitempty"`
	Line    int    `json:"line,omitempty"`    // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty"` // <= 200 chars
	Hint    string `json:"hint,omitempty"`
}

type ErrorResponse struct {
	Error AppError `json:"error"`
}
