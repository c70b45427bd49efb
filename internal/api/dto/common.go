package dto

// Pagination accompanies list responses.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

// StatusUpdateRequest is the body of status PATCH endpoints.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}
