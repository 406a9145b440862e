package dto

type UpdatePreferencesDTO struct {
	Preferences map[string]bool `json:"preferences" binding:"required"`
}
