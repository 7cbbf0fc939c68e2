// Package crawler polls the disclosure site for newly published annual
// reports, downloads the PDFs, extracts their MDA sections, and stores the
// results. One report is stored per (stock_code, report_year) across both
// exchanges.
package crawler

import (
	"context"
	"fmt"
	"log"
	"time"

	"reportclaw/cache"
	"reportclaw/config"
	"reportclaw/database"
	"reportclaw/database/reports"
	"reportclaw/mda"
	"reportclaw/notifications"
	"reportclaw/pdfutil"
	"reportclaw/realtime"
)

const (
	// Stop paging when this many consecutive pages process nothing.
	idlePageLimit = 3

	seenKeyTTL = 90 * 24 * time.Hour
)

// Crawler is the background ingestion worker. Start launches the polling
// loop; Stop shuts it down; TriggerNow schedules an immediate run.
type Crawler struct {
	cfg     config.CrawlerConfig
	client  *Client
	repo    *reports.Repository
	redis   *cache.RedisClient
	hub     *realtime.Hub
	webhook *notifications.WebhookManager

	runNow   chan struct{}
	stopChan chan struct{}
}

// New creates a new crawler
func New(cfg config.CrawlerConfig, repo *reports.Repository, redis *cache.RedisClient, hub *realtime.Hub, webhook *notifications.WebhookManager) *Crawler {
	return &Crawler{
		cfg:      cfg,
		client:   NewClient(cfg.QueryURL, cfg.FileBaseURL, cfg.MaxRetry),
		repo:     repo,
		redis:    redis,
		hub:      hub,
		webhook:  webhook,
		runNow:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Start runs the polling loop. An initial crawl fires immediately; further
// runs follow the poll interval or TriggerNow.
func (c *Crawler) Start() {
	log.Println("🕷️  Crawler started")
	c.run()

	interval := time.Duration(c.cfg.PollIntervalMinutes) * time.Minute
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-c.stopChan:
			return
		case <-c.runNow:
			c.run()
		case <-tick:
			c.run()
		}
	}
}

// Stop stops the polling loop
func (c *Crawler) Stop() {
	close(c.stopChan)
}

// TriggerNow schedules an immediate crawl. Returns false when a trigger is
// already pending.
func (c *Crawler) TriggerNow() bool {
	select {
	case c.runNow <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *Crawler) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.RunOnce(ctx); err != nil {
		log.Printf("⚠️  Crawl run failed: %v", err)
	}
}

// RunOnce performs one full incremental crawl over all exchanges. When every
// exchange query fails and a listing URL is configured, the HTML listing
// fallback runs instead.
func (c *Crawler) RunOnce(ctx context.Context) error {
	end := time.Now()
	window := Window{Start: end.AddDate(0, 0, -c.cfg.DaysBack), End: end}
	log.Printf("🕷️  Crawl window %s", window.DateRange())

	failures := 0
	for _, ex := range Exchanges {
		if err := c.crawlExchange(ctx, ex, window); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("⚠️  [%s] exchange crawl failed: %v", ex.Column, err)
			failures++
		}
	}

	if failures == len(Exchanges) && c.cfg.ListingURL != "" {
		log.Println("📄 Query endpoint unreachable, trying listing fallback...")
		return c.crawlListing(ctx, window)
	}

	log.Println("✅ Incremental crawl completed")
	return nil
}

// crawlExchange pages through one exchange column inside the window.
func (c *Crawler) crawlExchange(ctx context.Context, ex Exchange, window Window) error {
	idlePages := 0
	for page := 1; page <= c.cfg.MaxPages; page++ {
		log.Printf("🕷️  [%s] fetching page %d...", ex.Column, page)
		anns, err := c.client.FetchPage(ctx, ex, page, c.cfg.PageSize, window)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		log.Printf("🕷️  [%s] page %d returned %d announcements", ex.Column, page, len(anns))
		if len(anns) == 0 {
			return nil
		}

		// The server sometimes ignores seDate; the page bounds decide when
		// paging into history must stop.
		action := classifyPage(anns, window.Start)
		if action == pageStopNow {
			log.Printf("🕷️  [%s] page is entirely older than the window, stopping", ex.Column)
			return nil
		}

		processed := 0
		for i := range anns {
			ok, err := c.processAnnouncement(ctx, &anns[i], window)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("⚠️  [%s] %s: %v", ex.Column, anns[i].Title, err)
				continue
			}
			if ok {
				processed++
			}
		}

		// One unproductive page deep in the results is not enough to stop:
		// pagination ends only after idlePageLimit consecutive pages process
		// nothing, and never before page idlePageLimit. A page full of
		// already-seen reports between two productive ones keeps the crawl
		// going.
		if processed == 0 {
			idlePages++
			if page >= idlePageLimit && idlePages >= idlePageLimit {
				log.Printf("🕷️  [%s] %d idle pages, stopping pagination", ex.Column, idlePages)
				return nil
			}
		} else {
			idlePages = 0
		}

		if action == pageStopAfterThis {
			log.Printf("🕷️  [%s] reached window lower bound, stopping after this page", ex.Column)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1500 * time.Millisecond):
		}
	}
	log.Printf("🕷️  [%s] reached max page limit %d, stopping", ex.Column, c.cfg.MaxPages)
	return nil
}

// crawlListing ingests from the static HTML listing page.
func (c *Crawler) crawlListing(ctx context.Context, window Window) error {
	anns, err := c.client.FetchListing(ctx, c.cfg.ListingURL)
	if err != nil {
		return err
	}
	for i := range anns {
		if _, err := c.processAnnouncement(ctx, &anns[i], window); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("⚠️  listing entry %s: %v", anns[i].Title, err)
		}
	}
	return nil
}

// processAnnouncement runs one announcement through the full ingest path.
// Returns true when a report row was stored.
func (c *Crawler) processAnnouncement(ctx context.Context, ann *Announcement, window Window) (bool, error) {
	if !IsAnnualReportTitle(ann.Title) {
		return false, nil
	}
	year := ParseReportYear(ann.Title)
	if year == 0 {
		return false, nil
	}
	if !window.Contains(ann.Time.Time) {
		return false, nil
	}
	if ann.SecCode == "" {
		return false, nil
	}

	// Dedupe: cache first, then the store. The unique constraint catches
	// whatever races past both.
	seenKey := fmt.Sprintf("report_seen:%s:%d", ann.SecCode, year)
	if c.redis.Exists(ctx, seenKey) {
		return false, nil
	}
	exists, err := c.repo.Exists(ann.SecCode, year)
	if err != nil {
		return false, err
	}
	if exists {
		_ = c.redis.Set(ctx, seenKey, true, seenKeyTTL)
		return false, nil
	}

	log.Printf("⬇️  Downloading PDF: %s-%d %s", ann.SecCode, year, ann.Title)
	filePath, err := c.client.DownloadPDF(ctx, ann.AdjunctURL, c.cfg.DownloadDir)
	if err != nil {
		return false, fmt.Errorf("download: %w", err)
	}

	doc, err := pdfutil.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	// Short PDFs are correction notices, not full reports
	if doc.NumPages() < c.cfg.MinReportPages {
		log.Printf("⏭️  Skipping non-full report (%d pages): %s", doc.NumPages(), ann.Title)
		return false, nil
	}

	log.Printf("📖 Extracting MDA: %s-%d", ann.SecCode, year)
	sections, err := mda.ExtractMDA(doc)
	if err != nil {
		return false, fmt.Errorf("extract mda: %w", err)
	}

	report := &database.AnnualReport{
		StockCode:  ann.SecCode,
		ReportYear: year,
		FilePath:   &filePath,
	}
	if ann.SecName != "" {
		name := ann.SecName
		report.StockName = &name
	}
	if !ann.Time.IsZero() {
		publishDate := ann.Time.Time
		report.PublishDate = &publishDate
	}

	reportID, err := c.repo.InsertReport(report)
	if err != nil {
		if database.IsDuplicate(err) {
			// Lost the race against another run; mark seen and move on
			_ = c.redis.Set(ctx, seenKey, true, seenKeyTTL)
			return false, nil
		}
		return false, err
	}

	fullText := sections.FullText
	mdaRow := &database.AnnualReportMDA{
		ReportID:            reportID,
		IndustrySection:     sections.Industry,
		MainBusinessSection: sections.Business,
		FutureSection:       sections.Future,
		FullMDA:             &fullText,
	}
	if err := c.repo.InsertMDA(mdaRow); err != nil {
		return false, err
	}

	_ = c.redis.Set(ctx, seenKey, true, seenKeyTTL)

	if c.hub != nil {
		c.hub.Broadcast("report_ingested", database.ReportWithMDA{Report: *report, MDA: mdaRow})
	}
	if c.webhook != nil {
		c.webhook.SendReport(report, mdaRow)
	}

	log.Printf("✅ Stored %s-%d (report id %d)", ann.SecCode, year, reportID)
	return true, nil
}
