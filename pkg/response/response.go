package response

// Gateway error codes surfaced to API callers.
type ErrorCode string

const (
	CodeBadRequest     ErrorCode = "BAD_REQUEST_ERROR"
	CodeAuthentication ErrorCode = "AUTHENTICATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND_ERROR"
	CodeServer         ErrorCode = "SERVER_ERROR"
)

// ErrorBody is the error envelope every non-2xx API response carries:
// {"error": {"code": "...", "description": "..."}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code        ErrorCode `json:"code"`
	Description string    `json:"description"`
}

// Error builds the envelope for a code/description pair.
func Error(code ErrorCode, description string) ErrorBody {
	return ErrorBody{Error: ErrorDetail{Code: code, Description: description}}
}

// List is the paginated collection envelope used by list endpoints.
type List[T any] struct {
	Data   []T   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func NewList[T any](data []T, total int64, limit, offset int) *List[T] {
	if data == nil {
		data = []T{}
	}
	return &List[T]{Data: data, Total: total, Limit: limit, Offset: offset}
}
