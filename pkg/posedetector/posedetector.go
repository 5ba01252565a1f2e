package posedetector

import (
	"PoseCompare/internal/entity"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("not connected to pose detection service")

// IPoseDetector talks to the external landmark model.
type IPoseDetector interface {
	DetectLandmarks(ctx context.Context, frame []byte) (*entity.PoseDetectionResult, error)
	IsConnected() bool
	Reconnect() error
	CloseConnection()
}

type Config struct {
	URL          string
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type poseDetectorClient struct {
	conn *websocket.Conn
	// mu guards conn; exchange serializes a full request/response round trip.
	mu       sync.Mutex
	exchange sync.Mutex
	cfg      Config
	log      *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) IPoseDetector {
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	client := &poseDetectorClient{
		cfg: cfg,
		log: log,
	}

	go client.connectInBackground()

	return client
}

func (c *poseDetectorClient) connectInBackground() {
	c.exchange.Lock()
	defer c.exchange.Unlock()

	if c.IsConnected() {
		return
	}
	if err := c.Reconnect(); err != nil {
		c.log.Warnf("Initial connection to pose detection service failed: %v. Will retry on demand.", err)
		return
	}
	c.log.Info("Successfully connected to pose detection service")
}

func (c *poseDetectorClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

func (c *poseDetectorClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.cfg.URL == "" {
		return errors.New("URL for pose detection service not configured")
	}

	c.log.Infof("Connecting to pose detection service at %s", c.cfg.URL)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn

	go c.keepAlive(conn)

	return nil
}

func (c *poseDetectorClient) CloseConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *poseDetectorClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.Warnf("Ping failed for pose detection service, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *poseDetectorClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	return c.conn, nil
}

func (c *poseDetectorClient) dropConnection(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

// DetectLandmarks sends one encoded frame and waits for the model's answer.
// A frame without a person is a normal result with Detected set to false.
func (c *poseDetectorClient) DetectLandmarks(ctx context.Context, frame []byte) (*entity.PoseDetectionResult, error) {
	c.exchange.Lock()
	defer c.exchange.Unlock()

	conn, err := c.getConnection()
	if err != nil {
		if err := c.Reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to pose detection service: %w", err)
		}
		conn, err = c.getConnection()
		if err != nil {
			return nil, err
		}
	}

	writeDeadline := time.Now().Add(c.cfg.WriteTimeout)
	readDeadline := time.Now().Add(c.cfg.ReadTimeout)
	if deadline, ok := ctx.Deadline(); ok {
		if deadline.Before(writeDeadline) {
			writeDeadline = deadline
		}
		if deadline.Before(readDeadline) {
			readDeadline = deadline
		}
	}

	conn.SetWriteDeadline(writeDeadline)

	c.log.Debugf("Sending pose frame of size: %d bytes", len(frame))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.dropConnection(conn)
		return nil, fmt.Errorf("error sending pose frame: %w", err)
	}

	conn.SetReadDeadline(readDeadline)

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropConnection(conn)
		return nil, fmt.Errorf("error reading pose message: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var result entity.PoseDetectionResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling pose response: %w", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("pose detection service error: %s", result.Error)
	}

	if !result.Detected || len(result.Landmarks) == 0 {
		result.Detected = false
		result.Landmarks = nil
	}

	c.log.WithFields(logrus.Fields{
		"detected":  result.Detected,
		"landmarks": len(result.Landmarks),
	}).Debug("Received response from pose detection service")

	return &result, nil
}
