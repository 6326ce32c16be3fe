package calculator

import "calc-backend/internal/images"

type calculateRequest struct {
	ImageID    string      `json:"imageId"`
	DictOfVars images.Vars `json:"dictOfVars"`
}

// CalculateResponse wraps the analysis result.
type CalculateResponse struct {
	Result Result `json:"result"`
}
