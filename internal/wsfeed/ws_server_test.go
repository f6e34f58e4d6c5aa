package wsfeed_test

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LessonAnalytics/internal/collector"
	"LessonAnalytics/internal/config"
	"LessonAnalytics/internal/wsfeed"
)

func startTestServer(t *testing.T, addr string) (*wsfeed.Server, *collector.Collector) {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.WebSocket.Addr = addr

	coll := collector.New()
	server := wsfeed.New(cfg.WebSocket, coll)
	require.NoError(t, server.Start())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	// 确保服务器完全启动
	time.Sleep(100 * time.Millisecond)
	return server, coll
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestFeedSessionLifecycle 测试通过WebSocket推送事件并结课取报告
func TestFeedSessionLifecycle(t *testing.T) {
	t.Log("🎬 测试实时事件接入和结课报告...")
	startTestServer(t, ":18471")

	conn := dial(t, "ws://127.0.0.1:18471/ws/lessons/live-1")

	events := []wsfeed.ClientMessage{
		{Actor: "lesson", Action: "enter", Timestamp: 0},
		{Actor: "lesson", Action: "exit", Timestamp: 100},
		{Actor: "pupil", Action: "enter", Timestamp: 10},
		{Actor: "pupil", Action: "exit", Timestamp: 80},
		{Actor: "tutor", Action: "enter", Timestamp: 30},
		{Actor: "tutor", Action: "exit", Timestamp: 90},
	}

	for _, ev := range events {
		require.NoError(t, conn.WriteJSON(ev))

		var ack wsfeed.ServerMessage
		require.NoError(t, conn.ReadJSON(&ack))
		assert.Equal(t, "ack", ack.Type)
	}

	require.NoError(t, conn.WriteJSON(wsfeed.ClientMessage{Action: "finalize"}))

	var report wsfeed.ServerMessage
	require.NoError(t, conn.ReadJSON(&report))
	require.Equal(t, "report", report.Type)
	require.NotNil(t, report.Report)
	assert.Equal(t, "live-1", report.Report.SessionID)
	assert.Equal(t, int64(50), report.Report.AppearanceSeconds) // [30,80)
}

// TestFeedInvalidEvent 非法事件收到错误帧但连接保持
func TestFeedInvalidEvent(t *testing.T) {
	startTestServer(t, ":18472")

	conn := dial(t, "ws://127.0.0.1:18472/ws/lessons/live-2")

	require.NoError(t, conn.WriteJSON(wsfeed.ClientMessage{Actor: "ghost", Action: "enter", Timestamp: 1}))

	var msg wsfeed.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "ghost")

	// 连接仍然可用
	require.NoError(t, conn.WriteJSON(wsfeed.ClientMessage{Actor: "pupil", Action: "enter", Timestamp: 1}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "ack", msg.Type)
}

// TestFeedSessionSharedWithCollector 会话由HTTP侧开启时WS事件归入同一会话
func TestFeedSessionSharedWithCollector(t *testing.T) {
	_, coll := startTestServer(t, ":18473")

	// 先在收集器侧开启会话
	require.NoError(t, coll.StartSession("shared"))

	conn := dial(t, "ws://127.0.0.1:18473/ws/lessons/shared")

	require.NoError(t, conn.WriteJSON(wsfeed.ClientMessage{Actor: "lesson", Action: "enter", Timestamp: 0}))
	var ack wsfeed.ServerMessage
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, "ack", ack.Type)

	report, err := coll.Finalize("shared")
	require.NoError(t, err)
	assert.Equal(t, 1, report.LessonEvents)
}

// TestFeedStats 测试连接统计
func TestFeedStats(t *testing.T) {
	server, _ := startTestServer(t, ":18474")

	conn := dial(t, "ws://127.0.0.1:18474/ws/lessons/stats-1")
	require.NoError(t, conn.WriteJSON(wsfeed.ClientMessage{Actor: "pupil", Action: "enter", Timestamp: 1}))

	var ack wsfeed.ServerMessage
	require.NoError(t, conn.ReadJSON(&ack))

	stats := server.GetStats()
	assert.Equal(t, uint64(1), stats["total_connections"])
	assert.Equal(t, uint64(1), stats["total_events"])
}
