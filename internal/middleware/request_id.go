package middleware

import (
	contextPkg "PoseCompare/pkg/context"
	"PoseCompare/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

// maxRequestIDLength bounds a client supplied id; longer ids are replaced.
const maxRequestIDLength = 64

// NewRequestIDMiddleware keeps a usable X-Request-ID from the client or mints
// a ULID, then exposes it to handlers through Locals and echoes it back.
func NewRequestIDMiddleware(u utils.IUtils) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(contextPkg.RequestIDHeader)

		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID, _ = u.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(contextPkg.RequestIDHeader, requestID)
		c.Set(contextPkg.RequestIDHeader, requestID)

		return c.Next()
	}
}
