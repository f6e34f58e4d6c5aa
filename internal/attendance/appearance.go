package attendance

import (
	"LessonAnalytics/internal/interval"
)

// SessionInput 一节课的原始出入场时间戳。三个序列均为扁平的
// [进入1, 离开1, 进入2, 离开2, ...] 形式，缺失的键按空序列处理。
type SessionInput struct {
	Lesson []int64 `json:"lesson"`
	Pupil  []int64 `json:"pupil"`
	Tutor  []int64 `json:"tutor"`
}

// Appearance 计算学生和老师在课程时间内共同在场的总时长（秒）。
//
// 课程边界取 lesson 的前两个时间戳（多余的值忽略）；lesson 不足
// 两个元素或边界翻转/为零时返回0。学生与老师的序列先按配对解析、
// 再裁剪到课程边界，任一侧裁剪后为空则返回0，否则返回两侧区间
// 的重叠总时长。
//
// 对文档约定形状的任意输入该函数都是全函数：畸形输入一律退化为
// 0 或部分结果，绝不报错。
func Appearance(input SessionInput) int64 {
	if len(input.Lesson) < 2 {
		return 0
	}
	lessonStart, lessonEnd := input.Lesson[0], input.Lesson[1]
	if lessonStart >= lessonEnd {
		return 0
	}

	pupil := interval.Clip(interval.ParseTimestamps(input.Pupil), lessonStart, lessonEnd)
	tutor := interval.Clip(interval.ParseTimestamps(input.Tutor), lessonStart, lessonEnd)

	if len(pupil) == 0 || len(tutor) == 0 {
		return 0
	}

	return interval.OverlapDuration(pupil, tutor)
}
