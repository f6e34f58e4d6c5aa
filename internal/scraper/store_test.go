package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreAddNames 测试去重和首字母计数
func TestStoreAddNames(t *testing.T) {
	s := NewStore("АБВ")

	added := s.AddNames([]string{"Аист", "Барсук", "Аист", "", "Волк"})
	assert.Equal(t, 3, added)
	assert.Equal(t, 3, s.TotalNames())

	counts := s.CountsByLetter()
	assert.Equal(t, 1, counts['А'])
	assert.Equal(t, 1, counts['Б'])
	assert.Equal(t, 1, counts['В'])
}

// TestStoreIgnoresForeignLetters 字母表外的首字母不计数
func TestStoreIgnoresForeignLetters(t *testing.T) {
	s := NewStore("АБВ")

	added := s.AddNames([]string{"Zebra", "Аист"})
	assert.Equal(t, 2, added) // 名称仍然收集
	counts := s.CountsByLetter()
	assert.Equal(t, 1, counts['А'])
	assert.NotContains(t, counts, 'Z')
}

// TestStoreLowercaseFirstLetter 小写首字母按大写计数
func TestStoreLowercaseFirstLetter(t *testing.T) {
	s := NewStore("АБВ")

	s.AddNames([]string{"аист"})
	assert.Equal(t, 1, s.CountsByLetter()['А'])
}

// TestStoreRepeatedBatches 跨批次仍然去重
func TestStoreRepeatedBatches(t *testing.T) {
	s := NewStore("АБВ")

	require.Equal(t, 2, s.AddNames([]string{"Аист", "Барсук"}))
	require.Equal(t, 1, s.AddNames([]string{"Барсук", "Волк"}))
	assert.Equal(t, 3, s.TotalNames())
}

// TestCSVReport 测试CSV报告：行序与字母表一致，零计数也写出
func TestCSVReport(t *testing.T) {
	s := NewStore("АБВ")
	s.AddNames([]string{"Аист", "Альбатрос", "Волк"})

	path := filepath.Join(t.TempDir(), "beasts.csv")
	reporter := NewCSVReporter("АБВ")
	require.NoError(t, reporter.WriteReport(path, s.CountsByLetter()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "А,2\nБ,0\nВ,1\n", string(content))
}
