package collector

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"LessonAnalytics/internal/attendance"
)

// Actor 事件所属角色
type Actor string

const (
	ActorLesson Actor = "lesson"
	ActorPupil  Actor = "pupil"
	ActorTutor  Actor = "tutor"
)

// IsValid 检查角色是否有效
func (a Actor) IsValid() bool {
	switch a {
	case ActorLesson, ActorPupil, ActorTutor:
		return true
	default:
		return false
	}
}

// Action 出入场动作
type Action string

const (
	ActionEnter Action = "enter"
	ActionExit  Action = "exit"
)

// IsValid 检查动作是否有效
func (a Action) IsValid() bool {
	return a == ActionEnter || a == ActionExit
}

// PresenceEvent 单条出入场事件
type PresenceEvent struct {
	Actor     Actor  `json:"actor"`
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// Report 课程结束后的出勤报告
type Report struct {
	SessionID         string    `json:"session_id"`
	AppearanceSeconds int64     `json:"appearance_seconds"`
	LessonEvents      int       `json:"lesson_events"`
	PupilEvents       int       `json:"pupil_events"`
	TutorEvents       int       `json:"tutor_events"`
	StartedAt         time.Time `json:"started_at"`
	FinalizedAt       time.Time `json:"finalized_at"`
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// lessonSession 单节课的事件收集状态
type lessonSession struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	sequences map[Actor][]int64
}

// Collector 在线课程事件收集器。按会话ID维护各角色的扁平时间戳
// 序列，结课时物化为 SessionInput 并计算出勤时长。仅驻留内存，
// 会话结束即丢弃。
type Collector struct {
	sessions sync.Map // map[string]*lessonSession
}

// New 创建事件收集器
func New() *Collector {
	return &Collector{}
}

// StartSession 开启一个新的课程会话
func (c *Collector) StartSession(id string) error {
	s := &lessonSession{
		id:        id,
		startedAt: time.Now(),
		sequences: make(map[Actor][]int64),
	}
	if _, loaded := c.sessions.LoadOrStore(id, s); loaded {
		return fmt.Errorf("start session %q: %w", id, ErrSessionExists)
	}
	return nil
}

// RecordEvent 追加一条出入场事件。事件按到达顺序追加到对应角色的
// 时间戳序列末尾；配对是否合法由核心解析阶段统一裁决，收集器不做
// 顺序校验。
func (c *Collector) RecordEvent(id string, ev PresenceEvent) error {
	if !ev.Actor.IsValid() {
		return fmt.Errorf("record event: unknown actor %q", ev.Actor)
	}
	if !ev.Action.IsValid() {
		return fmt.Errorf("record event: unknown action %q", ev.Action)
	}

	value, ok := c.sessions.Load(id)
	if !ok {
		return fmt.Errorf("record event for %q: %w", id, ErrSessionNotFound)
	}
	s := value.(*lessonSession)

	s.mu.Lock()
	s.sequences[ev.Actor] = append(s.sequences[ev.Actor], ev.Timestamp)
	s.mu.Unlock()
	return nil
}

// Finalize 结束会话并生成出勤报告。会话从注册表移除后再计算，
// 同一会话并发 Finalize 只有一个会成功。
func (c *Collector) Finalize(id string) (*Report, error) {
	value, loaded := c.sessions.LoadAndDelete(id)
	if !loaded {
		return nil, fmt.Errorf("finalize %q: %w", id, ErrSessionNotFound)
	}
	s := value.(*lessonSession)

	s.mu.Lock()
	input := attendance.SessionInput{
		Lesson: s.sequences[ActorLesson],
		Pupil:  s.sequences[ActorPupil],
		Tutor:  s.sequences[ActorTutor],
	}
	s.mu.Unlock()

	return &Report{
		SessionID:         s.id,
		AppearanceSeconds: attendance.Appearance(input),
		LessonEvents:      len(input.Lesson),
		PupilEvents:       len(input.Pupil),
		TutorEvents:       len(input.Tutor),
		StartedAt:         s.startedAt,
		FinalizedAt:       time.Now(),
	}, nil
}

// ActiveSessions 返回当前未结课的会话ID列表
func (c *Collector) ActiveSessions() []string {
	var ids []string
	c.sessions.Range(func(key, _ interface{}) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}
