package dto

type AddContractChangeDTO struct {
	Description string `json:"description" binding:"required"`
}
