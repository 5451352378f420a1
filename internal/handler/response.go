package handler

// Response wraps every API payload.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// ListResponse carries a page of results with its paging echo.
type ListResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
}

func NewListResponse(data interface{}, page, limit int) *ListResponse {
	return &ListResponse{
		Status: "success",
		Data:   data,
		Page:   page,
		Limit:  limit,
	}
}
