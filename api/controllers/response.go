package controllers

// APIResponse unified API response envelope
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"ok"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse paginated response envelope
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"ok"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse builds a success envelope
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{Status: 0, Msg: msg, Data: data}
}

// BadRequestResponse builds a client-error envelope
func BadRequestResponse(msg string) APIResponse {
	return APIResponse{Status: 400, Msg: msg}
}

// NotFoundResponse builds a not-found envelope
func NotFoundResponse(msg string) APIResponse {
	return APIResponse{Status: 404, Msg: msg}
}

// InternalErrorResponse builds a server-error envelope
func InternalErrorResponse(msg string, err error) APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return APIResponse{Status: 500, Msg: msg}
}
