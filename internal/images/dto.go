package images

type uploadRequest struct {
	Image string `json:"image"`
}

// UploadResponse is returned after an image is stored.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ImageID string `json:"imageId"`
}

func toUploadResponse(rec ImageRecord) UploadResponse {
	return UploadResponse{
		Status:  "success",
		Message: "Image stored successfully",
		ImageID: rec.ID,
	}
}
