package poseHandler

import (
	poseService "PoseCompare/internal/api/pose/service"
	"PoseCompare/internal/middleware"
	"PoseCompare/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type PoseHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	poseService poseService.IPoseService
	utils       utils.IUtils
	// timeout bounds one request or one streamed frame.
	timeout time.Duration
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ps poseService.IPoseService,
	utils utils.IUtils,
) *PoseHandler {
	return &PoseHandler{
		poseService: ps,
		log:         log,
		validator:   validator,
		middleware:  middleware,
		utils:       utils,
		timeout:     requestTimeout,
	}
}

func (h *PoseHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	pose := srv.Group("/pose")
	pose.Post("/upload_reference", h.UploadReference)
	pose.Post("/compare_pose", h.ComparePose)
	pose.Get("/get_csv_data", h.GetCSVData)

	pose.Use("/ws", wsMiddleware)
	pose.Get("/ws", websocket.New(h.handleWebSocket))
}
