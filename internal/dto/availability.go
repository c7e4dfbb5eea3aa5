package dto

// CreatePatternRequest adds one recurring weekly open window for a host.
// Minutes count from midnight in the host's timezone.
type CreatePatternRequest struct {
	DayOfWeek   *int `json:"day_of_week" binding:"required,min=0,max=6"`
	StartMinute *int `json:"start_minute" binding:"required,min=0,max=1439"`
	EndMinute   *int `json:"end_minute" binding:"required,min=1,max=1440"`
}

// UpdatePatternRequest modifies a pattern's window or active flag.
type UpdatePatternRequest struct {
	DayOfWeek   *int  `json:"day_of_week" binding:"required,min=0,max=6"`
	StartMinute *int  `json:"start_minute" binding:"required,min=0,max=1439"`
	EndMinute   *int  `json:"end_minute" binding:"required,min=1,max=1440"`
	IsActive    *bool `json:"is_active" binding:"required"`
}
