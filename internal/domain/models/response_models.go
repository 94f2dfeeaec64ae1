package models

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    string `json:"code" example:"NOT_CONNECTED"`
		Message string `json:"message" example:"not connected to device"`
	} `json:"error"`
}

// MessageResponse is the standard success payload with a message.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Polling started"`
}
