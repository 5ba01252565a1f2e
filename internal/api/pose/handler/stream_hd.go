package poseHandler

import (
	contextPkg "PoseCompare/pkg/context"
	"PoseCompare/pkg/log"
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// handleWebSocket scores a live stream. Binary messages carry one encoded
// frame, text messages carry a data URL. Every frame gets one JSON reply.
func (h *PoseHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(contextPkg.RequestIDHeader).(string)
	if requestID == "" {
		requestID = "unknown"
	}
	baseCtx := contextPkg.WithRequestID(context.Background(), requestID)

	log.WithRequestID(baseCtx, h.log).Info("Pose stream client connected")
	defer log.WithRequestID(baseCtx, h.log).Info("Pose stream client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Pose stream error: %v", err)
			}
			break
		}

		ctx, cancel := context.WithTimeout(baseCtx, h.timeout)
		var reply interface{}

		switch messageType {
		case websocket.BinaryMessage:
			res, err := h.poseService.ComparePoseFrame(ctx, message)
			if err != nil {
				reply = map[string]string{"error": err.Error()}
			} else {
				reply = res
			}
		case websocket.TextMessage:
			res, err := h.poseService.ComparePose(ctx, string(message))
			if err != nil {
				reply = map[string]string{"error": err.Error()}
			} else {
				reply = res
			}
		default:
			h.log.Warnf("Received unexpected message type: %d", messageType)
		}
		cancel()

		if reply == nil {
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}
