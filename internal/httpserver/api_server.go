package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"LessonAnalytics/internal/attendance"
	"LessonAnalytics/internal/collector"
	"LessonAnalytics/internal/config"
	"LessonAnalytics/internal/validate"
)

// APIServer 出勤计算HTTP API服务器
type APIServer struct {
	router    *mux.Router
	server    *http.Server
	collector *collector.Collector
	cfg       config.ServerConfig

	// 请求体模式：三个键都可缺省，缺省按空序列处理
	appearanceSchema *validate.Schema

	// 统计信息
	requestCount int64
	errorCount   int64
	responseTime []time.Duration
	startTime    time.Time
	mu           sync.RWMutex
}

// APIResponse API响应结构
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// AppearanceResult 单次出勤计算结果
type AppearanceResult struct {
	AppearanceSeconds int64 `json:"appearance_seconds"`
}

// BatchItemResult 批量计算中单项的结果
type BatchItemResult struct {
	Index             int    `json:"index"`
	AppearanceSeconds int64  `json:"appearance_seconds"`
	Error             string `json:"error,omitempty"`
}

// New 创建HTTP API服务器
func New(cfg config.ServerConfig, coll *collector.Collector) *APIServer {
	s := &APIServer{
		router:    mux.NewRouter(),
		collector: coll,
		cfg:       cfg,
		appearanceSchema: validate.NewSchema(
			validate.Field{Name: "lesson", Kind: validate.IntSlice},
			validate.Field{Name: "pupil", Kind: validate.IntSlice},
			validate.Field{Name: "tutor", Kind: validate.IntSlice},
		),
		startTime: time.Now(),
	}

	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// setupRoutes 设置路由
func (s *APIServer) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metricsMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// 出勤计算
	api.HandleFunc("/attendance/appearance", s.appearanceHandler).Methods("POST")
	api.HandleFunc("/attendance/batch", s.batchHandler).Methods("POST")

	// 在线课程会话
	api.HandleFunc("/sessions", s.listSessionsHandler).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.startSessionHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/events", s.recordEventHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/finalize", s.finalizeSessionHandler).Methods("POST")

	// 健康检查和监控
	api.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	api.HandleFunc("/metrics", s.metricsHandler).Methods("GET")
}

// 中间件
func (s *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func (s *APIServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		s.mu.Lock()
		s.requestCount++
		s.responseTime = append(s.responseTime, duration)
		// 保持最近1000个请求的响应时间
		if len(s.responseTime) > 1000 {
			s.responseTime = s.responseTime[1:]
		}
		s.mu.Unlock()
	})
}

// decodeSessionInput 解码并校验请求体，再转换为 SessionInput。
// 类型不符在进入核心计算之前就被拒绝；通过校验后的输入交给核心，
// 核心对任何形状合法的输入都返回确定的整数。
func (s *APIServer) decodeSessionInput(raw map[string]interface{}) (attendance.SessionInput, error) {
	if err := s.appearanceSchema.Check(raw); err != nil {
		return attendance.SessionInput{}, err
	}

	var input attendance.SessionInput
	input.Lesson, _ = validate.Int64Slice(raw["lesson"])
	input.Pupil, _ = validate.Int64Slice(raw["pupil"])
	input.Tutor, _ = validate.Int64Slice(raw["tutor"])
	return input, nil
}

// appearanceHandler 计算单节课的共同在场时长
func (s *APIServer) appearanceHandler(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	input, err := s.decodeSessionInput(raw)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	s.writeSuccessResponse(w, AppearanceResult{
		AppearanceSeconds: attendance.Appearance(input),
	})
}

// batchHandler 批量计算多节课的共同在场时长
func (s *APIServer) batchHandler(w http.ResponseWriter, r *http.Request) {
	var items []map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(items) > s.cfg.MaxBatchSize {
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "batch_too_large", "Batch size exceeds limit")
		return
	}

	results := make([]BatchItemResult, 0, len(items))
	for i, raw := range items {
		input, err := s.decodeSessionInput(raw)
		if err != nil {
			results = append(results, BatchItemResult{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, BatchItemResult{
			Index:             i,
			AppearanceSeconds: attendance.Appearance(input),
		})
	}

	s.writeSuccessResponse(w, results)
}

// 会话相关处理器
func (s *APIServer) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	ids := s.collector.ActiveSessions()
	if ids == nil {
		ids = []string{}
	}
	s.writeSuccessResponse(w, ids)
}

func (s *APIServer) startSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.collector.StartSession(id); err != nil {
		s.writeErrorResponse(w, http.StatusConflict, "session_exists", err.Error())
		return
	}
	s.writeSuccessResponse(w, map[string]string{"session_id": id})
}

func (s *APIServer) recordEventHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var ev collector.PresenceEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := s.collector.RecordEvent(id, ev); err != nil {
		status := http.StatusBadRequest
		code := "invalid_event"
		if errors.Is(err, collector.ErrSessionNotFound) {
			status = http.StatusNotFound
			code = "session_not_found"
		}
		s.writeErrorResponse(w, status, code, err.Error())
		return
	}

	s.writeSuccessResponse(w, map[string]string{"message": "Event recorded"})
}

func (s *APIServer) finalizeSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := s.collector.Finalize(id)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	s.writeSuccessResponse(w, report)
}

// 健康检查和指标
func (s *APIServer) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeSuccessResponse(w, map[string]interface{}{
		"status":    "healthy",
		"uptime":    time.Since(s.startTime).Seconds(),
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *APIServer) metricsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	var avgResponseTime float64
	if len(s.responseTime) > 0 {
		var total time.Duration
		for _, rt := range s.responseTime {
			total += rt
		}
		avgResponseTime = float64(total.Nanoseconds()) / float64(len(s.responseTime)) / 1e6 // ms
	}
	requestCount := s.requestCount
	errorCount := s.errorCount
	s.mu.RUnlock()

	s.writeSuccessResponse(w, map[string]interface{}{
		"uptime_seconds":       time.Since(s.startTime).Seconds(),
		"total_requests":       requestCount,
		"error_count":          errorCount,
		"avg_response_time_ms": avgResponseTime,
		"active_sessions":      len(s.collector.ActiveSessions()),
	})
}

// 辅助方法
func (s *APIServer) writeSuccessResponse(w http.ResponseWriter, data interface{}) {
	response := APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	s.writeJSONResponse(w, http.StatusOK, response)
}

func (s *APIServer) writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()

	response := APIResponse{
		Success:   false,
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UnixMilli(),
	}
	s.writeJSONResponse(w, statusCode, response)
}

func (s *APIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Handler 返回完整的HTTP处理器（含CORS），供测试使用
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

// Start 启动服务器
func (s *APIServer) Start() error {
	log.Printf("Starting HTTP API server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown 优雅停止服务器
func (s *APIServer) Shutdown(ctx context.Context) error {
	log.Printf("Stopping HTTP API server")
	return s.server.Shutdown(ctx)
}
