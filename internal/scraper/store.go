package scraper

import (
	"sync"
	"unicode"
)

// Store 收集到的条目名称存储。按首字母计数，只统计字母表内的
// 首字母；重复名称不重复计数。
type Store struct {
	mu       sync.Mutex
	names    map[string]struct{}
	counts   map[rune]int
	alphabet map[rune]struct{}
}

// NewStore 创建存储，alphabet 为参与计数的首字母集合
func NewStore(alphabet string) *Store {
	s := &Store{
		names:    make(map[string]struct{}),
		counts:   make(map[rune]int),
		alphabet: make(map[rune]struct{}),
	}
	for _, r := range alphabet {
		s.alphabet[unicode.ToUpper(r)] = struct{}{}
	}
	return s
}

// AddNames 添加一批名称，返回新增的去重名称数
func (s *Store) AddNames(names []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, seen := s.names[name]; seen {
			continue
		}
		s.names[name] = struct{}{}
		added++

		first := unicode.ToUpper([]rune(name)[0])
		if _, ok := s.alphabet[first]; ok {
			s.counts[first]++
		}
	}
	return added
}

// CountsByLetter 返回各首字母的计数快照
func (s *Store) CountsByLetter() map[rune]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[rune]int, len(s.counts))
	for r, n := range s.counts {
		counts[r] = n
	}
	return counts
}

// TotalNames 返回已收集的去重名称总数
func (s *Store) TotalNames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}
