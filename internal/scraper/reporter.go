package scraper

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
)

// CSVReporter 把首字母计数写成CSV报告，行序与字母表一致，
// 没有条目的字母也写出计数0。
type CSVReporter struct {
	alphabet []rune
}

// NewCSVReporter 创建报告生成器
func NewCSVReporter(alphabet string) *CSVReporter {
	return &CSVReporter{alphabet: []rune(alphabet)}
}

// WriteReport 将计数写入CSV文件
func (r *CSVReporter) WriteReport(path string, counts map[rune]int) error {
	log.Printf("Writing report to %s", path)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, letter := range r.alphabet {
		record := []string{string(letter), strconv.Itoa(counts[letter])}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入报告失败: %w", err)
		}
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}
