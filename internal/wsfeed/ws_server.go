package wsfeed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"LessonAnalytics/internal/collector"
	"LessonAnalytics/internal/config"
)

// ClientMessage 客户端推送的消息。常规消息携带一条出入场事件；
// action 为 finalize 时结课并请求出勤报告。
type ClientMessage struct {
	Actor     string `json:"actor,omitempty"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ServerMessage 服务端回发的消息
type ServerMessage struct {
	Type    string            `json:"type"` // "ack", "error", "report"
	Message string            `json:"message,omitempty"`
	Report  *collector.Report `json:"report,omitempty"`
}

// actionFinalize 结课指令，非出入场事件
const actionFinalize = "finalize"

// ConnectionStats 连接统计信息
type ConnectionStats struct {
	ConnectedAt    time.Time
	EventsReceived atomic.Uint64
	LastActivity   atomic.Int64 // unix nano
}

// Connection 表示一个接入的推流连接
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Stats     *ConnectionStats

	closeOnce sync.Once
	writeMu   sync.Mutex
}

// safeClose 安全关闭底层连接
func (c *Connection) safeClose() {
	c.closeOnce.Do(func() {
		c.Conn.Close()
	})
}

// writeJSON 串行化写出，避免并发写同一连接
func (c *Connection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Server 实时出入场事件接入服务器。代课端通过WebSocket推送
// {actor, action, timestamp} 事件，事件逐条转入收集器；结课指令
// 触发出勤计算并把报告推回连接。
type Server struct {
	cfg       config.WebSocketConfig
	collector *collector.Collector
	server    *http.Server
	upgrader  websocket.Upgrader

	// 连接管理
	connections sync.Map // map[string]*Connection
	connCount   atomic.Int32
	connWg      sync.WaitGroup
	connSeq     atomic.Uint64

	// 统计信息
	totalConnections atomic.Uint64
	totalEvents      atomic.Uint64
	startTime        time.Time
	isRunning        atomic.Bool
}

// New 创建接入服务器
func New(cfg config.WebSocketConfig, coll *collector.Collector) *Server {
	s := &Server{
		cfg:       cfg,
		collector: coll,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				return true // 接入侧不做Origin限制
			},
		},
		startTime: time.Now(),
	}

	router := mux.NewRouter()
	router.HandleFunc(cfg.Path+"/{id}", s.handleFeed)

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	return s
}

// Start 启动服务器（监听失败立即返回错误）
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("启动事件接入服务器失败: %w", err)
	}
	s.isRunning.Store(true)
	log.Printf("Starting event feed server on %s%s", s.cfg.Addr, s.cfg.Path)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Event feed server error: %v", err)
		}
	}()
	return nil
}

// Shutdown 优雅停止：先停止接受新连接，再关闭现有连接并等待
// 读循环退出。
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil
	}
	log.Printf("Stopping event feed server")

	err := s.server.Shutdown(ctx)

	s.connections.Range(func(_, value interface{}) bool {
		value.(*Connection).safeClose()
		return true
	})
	s.connWg.Wait()
	return err
}

// handleFeed 处理一条推流连接
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if int(s.connCount.Load()) >= s.cfg.MaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	sessionID := mux.Vars(r)["id"]

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed for session %s: %v", sessionID, err)
		return
	}

	// 会话可能已由HTTP接口开启，重复开启不算错误
	if err := s.collector.StartSession(sessionID); err != nil && !errors.Is(err, collector.ErrSessionExists) {
		conn.Close()
		return
	}

	c := &Connection{
		ID:        fmt.Sprintf("conn_%d", s.connSeq.Add(1)),
		SessionID: sessionID,
		Conn:      conn,
		Stats:     &ConnectionStats{ConnectedAt: time.Now()},
	}

	s.connections.Store(c.ID, c)
	s.connCount.Add(1)
	s.totalConnections.Add(1)
	s.connWg.Add(1)

	go s.readLoop(c)
}

// readLoop 逐条读取事件直到连接关闭或结课
func (s *Server) readLoop(c *Connection) {
	defer func() {
		s.connections.Delete(c.ID)
		s.connCount.Add(-1)
		s.connWg.Done()
		c.safeClose()
	}()

	for {
		var msg ClientMessage
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Connection %s closed unexpectedly: %v", c.ID, err)
			}
			return
		}

		c.Stats.EventsReceived.Add(1)
		c.Stats.LastActivity.Store(time.Now().UnixNano())

		if msg.Action == actionFinalize {
			s.finalize(c)
			return
		}

		ev := collector.PresenceEvent{
			Actor:     collector.Actor(msg.Actor),
			Action:    collector.Action(msg.Action),
			Timestamp: msg.Timestamp,
		}
		if err := s.collector.RecordEvent(c.SessionID, ev); err != nil {
			c.writeJSON(ServerMessage{Type: "error", Message: err.Error()})
			continue
		}

		s.totalEvents.Add(1)
		c.writeJSON(ServerMessage{Type: "ack"})
	}
}

// finalize 结课：计算报告，推回客户端后正常关闭连接
func (s *Server) finalize(c *Connection) {
	report, err := s.collector.Finalize(c.SessionID)
	if err != nil {
		c.writeJSON(ServerMessage{Type: "error", Message: err.Error()})
		return
	}

	if err := c.writeJSON(ServerMessage{Type: "report", Report: report}); err != nil {
		log.Printf("Failed to push report for session %s: %v", c.SessionID, err)
		return
	}

	c.writeMu.Lock()
	c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "lesson finalized"))
	c.writeMu.Unlock()
}

// GetStats 获取服务器统计信息
func (s *Server) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":     time.Since(s.startTime).Seconds(),
		"active_connections": s.connCount.Load(),
		"total_connections":  s.totalConnections.Load(),
		"total_events":       s.totalEvents.Load(),
	}
}
