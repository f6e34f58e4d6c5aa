package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAppearance 测试共同在场时长计算
func TestAppearance(t *testing.T) {
	tests := []struct {
		name     string
		input    SessionInput
		expected int64
	}{
		{
			name: "真实课程数据",
			input: SessionInput{
				Lesson: []int64{1594663200, 1594666800},
				Pupil:  []int64{1594663340, 1594663389, 1594663390, 1594663395, 1594663396, 1594666472},
				Tutor:  []int64{1594663290, 1594663430, 1594663443, 1594666473},
			},
			expected: 3117,
		},
		{
			name: "双方在场但不重叠",
			input: SessionInput{
				Lesson: []int64{0, 100},
				Pupil:  []int64{10, 20},
				Tutor:  []int64{30, 40},
			},
			expected: 0,
		},
		{
			name: "在场区间覆盖整节课时裁剪到课程边界",
			input: SessionInput{
				Lesson: []int64{10, 20},
				Pupil:  []int64{0, 30},
				Tutor:  []int64{5, 25},
			},
			expected: 10,
		},
		{
			name: "畸形配对被丢弃只计合法配对",
			input: SessionInput{
				Lesson: []int64{0, 100},
				Pupil:  []int64{10, 5, 20, 30},
				Tutor:  []int64{0, 100},
			},
			expected: 10,
		},
		{
			name: "零时长课程返回0",
			input: SessionInput{
				Lesson: []int64{0, 0},
				Pupil:  []int64{0, 10},
				Tutor:  []int64{0, 10},
			},
			expected: 0,
		},
		{
			name: "课程边界翻转返回0",
			input: SessionInput{
				Lesson: []int64{100, 0},
				Pupil:  []int64{0, 10},
				Tutor:  []int64{0, 10},
			},
			expected: 0,
		},
		{
			name: "课程时间戳不足两个返回0",
			input: SessionInput{
				Lesson: []int64{100},
				Pupil:  []int64{0, 1000},
				Tutor:  []int64{0, 1000},
			},
			expected: 0,
		},
		{
			name:     "全部缺省返回0",
			input:    SessionInput{},
			expected: 0,
		},
		{
			name: "课程多余的时间戳被忽略",
			input: SessionInput{
				Lesson: []int64{0, 100, 200, 300},
				Pupil:  []int64{0, 50},
				Tutor:  []int64{0, 50},
			},
			expected: 50,
		},
		{
			name: "学生缺席返回0",
			input: SessionInput{
				Lesson: []int64{0, 100},
				Tutor:  []int64{0, 100},
			},
			expected: 0,
		},
		{
			name: "老师区间全在课程外返回0",
			input: SessionInput{
				Lesson: []int64{100, 200},
				Pupil:  []int64{100, 200},
				Tutor:  []int64{0, 50},
			},
			expected: 0,
		},
		{
			name: "多段断续在场合并计算",
			input: SessionInput{
				Lesson: []int64{0, 100},
				Pupil:  []int64{0, 30, 50, 100},
				Tutor:  []int64{20, 60},
			},
			expected: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Appearance(tt.input))
		})
	}
}

// TestAppearanceSymmetric 交换学生和老师的序列结果不变
func TestAppearanceSymmetric(t *testing.T) {
	input := SessionInput{
		Lesson: []int64{0, 1000},
		Pupil:  []int64{10, 200, 300, 500},
		Tutor:  []int64{50, 350, 400, 900},
	}
	swapped := SessionInput{
		Lesson: input.Lesson,
		Pupil:  input.Tutor,
		Tutor:  input.Pupil,
	}
	assert.Equal(t, Appearance(input), Appearance(swapped))
}

// TestAppearanceNeverNegative 任意形状的输入都返回非负结果
func TestAppearanceNeverNegative(t *testing.T) {
	inputs := []SessionInput{
		{Lesson: []int64{5, 3, 1}, Pupil: []int64{9}, Tutor: []int64{2, 2, 2}},
		{Lesson: []int64{-100, -10}, Pupil: []int64{-50, -20}, Tutor: []int64{-40, -30}},
		{Lesson: []int64{0, 1}, Pupil: []int64{1, 0}, Tutor: []int64{0, 1}},
	}
	for _, input := range inputs {
		assert.GreaterOrEqual(t, Appearance(input), int64(0))
	}
}
