package scraper

import (
	"context"
	"log"

	"LessonAnalytics/internal/config"
)

// Scraper 分类页抓取编排器。从起始页逐页抓取条目名称，跟随
// “下一页”链接翻页，结束后输出首字母计数报告。
type Scraper struct {
	fetcher  *Fetcher
	parser   *Parser
	store    *Store
	reporter *CSVReporter
	cfg      config.ScraperConfig
	visited  map[string]struct{}
}

// New 创建抓取编排器
func New(cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		fetcher:  NewFetcher(cfg),
		parser:   NewParser(cfg.NextPageLabels),
		store:    NewStore(cfg.Alphabet),
		reporter: NewCSVReporter(cfg.Alphabet),
		cfg:      cfg,
		visited:  make(map[string]struct{}),
	}
}

// Run 执行完整抓取流程。翻页在以下情况停止：没有下一页、
// 下一页与当前页相同（防循环）、达到页数上限、抓取失败或ctx取消。
// 无论翻页因何停止，已收集的数据都会写出报告。
func (s *Scraper) Run(ctx context.Context) error {
	log.Printf("Starting scrape from: %s", s.cfg.StartURL)

	currentURL := s.cfg.StartURL
	pagesScraped := 0

	for currentURL != "" && pagesScraped < s.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			log.Printf("Scrape cancelled: %v", err)
			break
		}
		if _, seen := s.visited[currentURL]; seen {
			log.Printf("URL already visited, stopping: %s", currentURL)
			break
		}
		s.visited[currentURL] = struct{}{}

		content, err := s.fetcher.Fetch(ctx, currentURL)
		if err != nil {
			log.Printf("Fetch failed, stopping pagination: %v", err)
			break
		}

		names := s.parser.ExtractNames(content)
		added := s.store.AddNames(names)
		log.Printf("Page %d: extracted %d names (%d new)", pagesScraped+1, len(names), added)

		nextURL := s.parser.NextPageURL(content, s.cfg.BaseURL)
		if nextURL == currentURL {
			log.Printf("Next page equals current page, stopping to prevent loop")
			break
		}

		currentURL = nextURL
		pagesScraped++
	}

	if pagesScraped >= s.cfg.MaxPages {
		log.Printf("Reached page limit (%d), stopping", s.cfg.MaxPages)
	}

	log.Printf("Scrape finished: %d pages, %d unique names", pagesScraped, s.store.TotalNames())
	return s.reporter.WriteReport(s.cfg.OutputPath, s.store.CountsByLetter())
}
