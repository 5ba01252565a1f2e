package poseHandler

import (
	"PoseCompare/internal/api/pose"
	"PoseCompare/internal/entity"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialStream(t *testing.T, f *testFixture) *websocket.Conn {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go f.app.Listener(ln)
	t.Cleanup(func() { f.app.Shutdown() })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/pose/ws", nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, messageType int, payload []byte) map[string]interface{} {
	t.Helper()

	if err := conn.WriteMessage(messageType, payload); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply map[string]interface{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	return reply
}

func TestStreamScoresFrames(t *testing.T) {
	f := newTestFixture(t)

	if status, body := do(t, f.app, uploadRequest(t, "image", "ref.png", solidPNG(t, 255))); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d %v", status, body)
	}

	conn := dialStream(t, f)

	reply := exchange(t, conn, websocket.BinaryMessage, solidPNG(t, 255))
	if reply["pose_detected"] != true || reply["distance"] != float64(0) || reply["landmarks_count"] != float64(entity.PoseLandmarkCount) {
		t.Errorf("Unexpected reply to binary frame: %v", reply)
	}

	reply = exchange(t, conn, websocket.TextMessage, []byte(dataURL(solidPNG(t, 0))))
	if reply["pose_detected"] != false || reply["distance"] != entity.UndefinedDistanceText {
		t.Errorf("Unexpected reply to data URL frame: %v", reply)
	}

	reply = exchange(t, conn, websocket.BinaryMessage, []byte("not an image"))
	if reply["error"] != pose.ErrImageUnreadable.Error() {
		t.Errorf("Unexpected reply to unreadable frame: %v", reply)
	}

	rows, err := f.repo.GetAllComparisons(context.Background())
	if err != nil {
		t.Fatalf("GetAllComparisons failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected one row per scored frame, got %d", len(rows))
	}
	if rows[0]["pose_detected"] != "true" || rows[1]["pose_detected"] != "false" {
		t.Errorf("Unexpected rows %v", rows)
	}
}

func TestStreamWithoutReference(t *testing.T) {
	f := newTestFixture(t)
	conn := dialStream(t, f)

	reply := exchange(t, conn, websocket.BinaryMessage, solidPNG(t, 255))
	if reply["error"] != pose.ErrNoReference.Error() {
		t.Errorf("Expected no reference error, got %v", reply)
	}

	rows, err := f.repo.GetAllComparisons(context.Background())
	if err != nil {
		t.Fatalf("GetAllComparisons failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected nothing logged, got %d rows", len(rows))
	}
}
