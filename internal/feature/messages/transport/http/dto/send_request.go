package dto

// SendReq is the body of POST /messages.
type SendReq struct {
	RecipientID      uint   `json:"recipient_id" binding:"required"`
	Subject          string `json:"subject" binding:"required,max=80"`
	Body             string `json:"body" binding:"required,max=1000"`
	RequiresResponse bool   `json:"requires_response"`
}
