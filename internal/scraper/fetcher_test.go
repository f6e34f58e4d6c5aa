package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LessonAnalytics/internal/config"
)

func testScraperConfig(t *testing.T) config.ScraperConfig {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Scraper.PoliteDelay = time.Millisecond
	cfg.Scraper.RequestTimeout = 2 * time.Second
	cfg.Scraper.MaxRetries = 2
	return cfg.Scraper
}

// TestFetcherSuccess 测试成功抓取和User-Agent头
func TestFetcherSuccess(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	cfg := testScraperConfig(t)
	content, err := NewFetcher(cfg).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", content)
	assert.Equal(t, cfg.UserAgent, gotUA)
}

// TestFetcherRetriesTransientErrors 5xx触发重试直到成功
func TestFetcherRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	content, err := NewFetcher(testScraperConfig(t)).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, int32(3), calls.Load())
}

// TestFetcherPermanentError 4xx不重试直接失败
func TestFetcherPermanentError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testScraperConfig(t)).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// TestFetcherContextCancelled 取消的ctx立即失败
func TestFetcherContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("never"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(testScraperConfig(t)).Fetch(ctx, server.URL)
	assert.Error(t, err)
}

// TestScraperRun 端到端：翻页抓取、防循环、写出报告
func TestScraperRun(t *testing.T) {
	t.Log("🕷 测试抓取编排流程...")

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	page2 := `<html><body><div id="mw-pages">
	  <div class="mw-category-group"><ul>
	    <li><a href="/wiki/B" title="Барсук">Барсук</a></li>
	  </ul></div>
	</div></body></html>`

	mux.HandleFunc("/page1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div id="mw-pages">
		  <a href="/page2?pagefrom=Б">Следующая страница</a>
		  <div class="mw-category-group"><ul>
		    <li><a href="/wiki/A" title="Аист">Аист</a></li>
		  </ul></div>
		</div></body></html>`))
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page2))
	})

	cfg := testScraperConfig(t)
	cfg.BaseURL = server.URL
	cfg.StartURL = server.URL + "/page1"
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.csv")
	cfg.Alphabet = "АБВ"
	cfg.MaxPages = 10

	require.NoError(t, New(cfg).Run(context.Background()))

	content, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "А,1\nБ,1\nВ,0\n", string(content))
}
