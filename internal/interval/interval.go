package interval

import (
	"sort"
)

// Interval 半开区间 [Start, End)，单位为秒级时间戳。
// 仅由 ParseTimestamps 和 Clip 构造，构造后保证 Start < End。
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Duration 返回区间长度（秒）
func (iv Interval) Duration() int64 {
	return iv.End - iv.Start
}

// intersect 返回与区间 y 的交集。没有交集时第二个返回值为 false。
// 半开区间语义：仅在端点处相接视为无交集。
func (iv Interval) intersect(y Interval) (Interval, bool) {
	start := max64(iv.Start, y.Start)
	end := min64(iv.End, y.End)
	if start < end {
		return Interval{Start: start, End: end}, true
	}
	return Interval{}, false
}

// ParseTimestamps 把扁平时间戳序列 [s1, e1, s2, e2, ...] 解析为区间列表。
// 从下标0开始两两配对；末尾落单的时间戳被丢弃；start >= end 的配对
// 被静默丢弃。输出顺序与输入配对顺序一致，永不报错。
func ParseTimestamps(timestamps []int64) []Interval {
	var intervals []Interval
	for i := 0; i+1 < len(timestamps); i += 2 {
		start, end := timestamps[i], timestamps[i+1]
		if start < end {
			intervals = append(intervals, Interval{Start: start, End: end})
		}
	}
	return intervals
}

// Clip 把区间列表裁剪到边界 [lo, hi] 内。裁剪后塌缩或翻转的区间被丢弃，
// 其余区间保持相对顺序。对已裁剪列表重复调用结果不变（幂等）。
func Clip(intervals []Interval, lo, hi int64) []Interval {
	var clipped []Interval
	for _, iv := range intervals {
		effectiveStart := max64(iv.Start, lo)
		effectiveEnd := min64(iv.End, hi)
		if effectiveStart < effectiveEnd {
			clipped = append(clipped, Interval{Start: effectiveStart, End: effectiveEnd})
		}
	}
	return clipped
}

// OverlapDuration 计算两个区间列表同时覆盖的总时长（秒）。
// 先做两两相交得到公共段，再按起点排序做合并扫描，重复覆盖的
// 子区间只计一次。任一列表为空时返回0，结果对参数顺序对称。
func OverlapDuration(a, b []Interval) int64 {
	var segments []Interval
	for _, x := range a {
		for _, y := range b {
			if seg, ok := x.intersect(y); ok {
				segments = append(segments, seg)
			}
		}
	}

	if len(segments) == 0 {
		return 0
	}

	var total int64
	for _, seg := range mergeOverlapping(segments) {
		total += seg.Duration()
	}
	return total
}

// mergeOverlapping 按起点排序后合并相互重叠的段。
// 仅端点相接（next.Start == merged.End）的段不合并，按半开区间
// 约定各自独立输出。
func mergeOverlapping(segments []Interval) []Interval {
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	merged := make([]Interval, 0, len(segments))
	current := segments[0]
	for _, seg := range segments[1:] {
		if seg.Start < current.End {
			current.End = max64(current.End, seg.End)
		} else {
			merged = append(merged, current)
			current = seg
		}
	}
	return append(merged, current)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
