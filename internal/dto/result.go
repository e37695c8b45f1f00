package dto

// Result is the envelope every endpoint answers with.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Ok(data interface{}) Result {
	return Result{Success: true, Data: data}
}

func Fail(code, message string) Result {
	return Result{Success: false, Error: message, Code: code}
}
