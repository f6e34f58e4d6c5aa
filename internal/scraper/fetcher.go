package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"LessonAnalytics/internal/config"
)

// Fetcher 负责抓取页面HTML。每次请求前等待礼貌延迟，请求失败时
// 指数退避重试；4xx视为永久失败不重试。
type Fetcher struct {
	client      *http.Client
	userAgent   string
	politeDelay time.Duration
	maxRetries  uint64
}

// NewFetcher 创建页面抓取器
func NewFetcher(cfg config.ScraperConfig) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:   cfg.UserAgent,
		politeDelay: cfg.PoliteDelay,
		maxRetries:  uint64(cfg.MaxRetries),
	}
}

// Fetch 抓取指定URL，返回HTML文本
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	log.Printf("Fetching: %s", url)

	var content string
	operation := func() error {
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		case <-time.After(f.politeDelay):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("抓取 %s 失败: HTTP %d", url, resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("抓取 %s 失败: HTTP %d", url, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		content = string(body)
		return nil
	}

	backOff := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.maxRetries), ctx)
	if err := backoff.Retry(operation, backOff); err != nil {
		return "", err
	}

	log.Printf("Fetched successfully: %s (%d bytes)", url, len(content))
	return content, nil
}
