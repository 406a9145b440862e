package dto

type SubmitComplaintDTO struct {
	TenderID string `json:"tenderId" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

type UpdateComplaintStatusDTO struct {
	Status string `json:"status" binding:"required"`
}
