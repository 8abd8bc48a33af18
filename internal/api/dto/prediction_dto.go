package dto

type PredictRequest struct {
	Inputs []InputDTO `json:"inputs" binding:"required,min=1,dive"`
}

// InputDTO is one document to classify. Text may be blank but must be present.
type InputDTO struct {
	ID   string  `json:"id"`
	Text *string `json:"text" binding:"required"`
}

type PredictQuery struct {
	Asynch int `form:"asynch" binding:"oneof=0 1"`
}

type ListPredictionsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=queued done error"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}
