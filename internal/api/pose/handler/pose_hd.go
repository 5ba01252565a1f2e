package poseHandler

import (
	"PoseCompare/internal/api/pose"
	contextPkg "PoseCompare/pkg/context"
	"PoseCompare/pkg/handlerUtil"
	"PoseCompare/pkg/log"
	"PoseCompare/pkg/utils"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const requestTimeout = 20 * time.Second

func (h *PoseHandler) UploadReference(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, missingUploadError(ctx), ctx.Path(), "form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing reference upload")

	if err := h.utils.ValidateImageFile(file); err != nil {
		return errHandler.Handle(ctx, requestID, uploadError(err), ctx.Path(), "validate_image_file")
	}

	data, err := h.utils.ReadMultipartFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
	}

	if c.Err() != nil {
		return errHandler.HandleRequestTimeout(ctx)
	}

	res, err := h.poseService.UploadReference(c, file.Filename, file.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "upload_reference")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"landmarks":  res.LandmarksCount,
	}).Info("Reference pose uploaded")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
}

func (h *PoseHandler) ComparePose(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if !h.poseService.ReferenceLoaded() {
		return errHandler.Handle(ctx, requestID, pose.ErrNoReference, ctx.Path(), "check_reference")
	}

	var req pose.ComparePoseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, pose.ErrNoImageData, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.Handle(ctx, requestID, pose.ErrNoImageData, ctx.Path(), "validate_request")
	}

	if c.Err() != nil {
		return errHandler.HandleRequestTimeout(ctx)
	}

	res, err := h.poseService.ComparePose(c, req.Image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "compare_pose")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
}

func (h *PoseHandler) GetCSVData(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	res, err := h.poseService.GetComparisonLog(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_csv_data")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

// missingUploadError tells an absent "image" part apart from one sent with an
// empty filename, which multipart parsing files under form values.
func missingUploadError(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return pose.ErrNoImageFile
	}
	if _, ok := form.Value["image"]; ok {
		return pose.ErrNoFileSelected
	}
	return pose.ErrNoImageFile
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, utils.ErrNoFile):
		return pose.ErrNoImageFile
	case errors.Is(err, utils.ErrFileTooLarge):
		return pose.ErrFileTooLarge
	case errors.Is(err, utils.ErrNotAnImage):
		return pose.ErrNotAnImage
	}
	return err
}
