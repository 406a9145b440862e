package dto

import "time"

type CreateTenderDTO struct {
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	ContractStandard string    `json:"contractStandard"`
	Deadline         time.Time `json:"deadline" binding:"required"`
	ProjectID        string    `json:"projectId"`
}

type AwardTenderDTO struct {
	BidID string `json:"bidId" binding:"required"`
}

type SubmitBidDTO struct {
	Price          float64 `json:"price" binding:"required,gt=0"`
	PriceStructure string  `json:"priceStructure"`
}

type InviteSupplierDTO struct {
	SupplierID string `json:"supplierId" binding:"required"`
	Email      string `json:"email"`
}

type AddQuestionDTO struct {
	Text string `json:"text" binding:"required"`
}

type AnswerQuestionDTO struct {
	Answer string `json:"answer" binding:"required"`
}
