package pose

import (
	"PoseCompare/pkg/response"
	"net/http"
)

var (
	ErrNoImageFile       = response.NewError(http.StatusBadRequest, "No image file provided")
	ErrNoFileSelected    = response.NewError(http.StatusBadRequest, "No file selected")
	ErrNoImageData       = response.NewError(http.StatusBadRequest, "No image data provided")
	ErrInvalidImageData  = response.NewError(http.StatusBadRequest, "Invalid image data")
	ErrImageUnreadable   = response.NewError(http.StatusBadRequest, "Image could not be decoded")
	ErrNoReference       = response.NewError(http.StatusBadRequest, "No reference pose uploaded")
	ErrNoPoseInReference = response.NewError(http.StatusBadRequest, "No pose detected in the reference image")
	ErrTopologyMismatch  = response.NewError(http.StatusBadRequest, "Frame landmarks do not match the reference pose topology")
	ErrFileTooLarge      = response.NewError(http.StatusRequestEntityTooLarge, "File too large")
	ErrNotAnImage        = response.NewError(http.StatusBadRequest, "Invalid file type. Only images are allowed.")
)
