// Package digest builds the daily summary of newly ingested annual report
// excerpts and hands it to the notification channel. The incremental
// boundary is annual_report_mda.created_at: everything stored after the last
// delivery makes the next digest, so a report extracted yesterday evening is
// still announced this morning.
package digest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"reportclaw/cache"
	"reportclaw/config"
	"reportclaw/database"
	"reportclaw/notifications"
)

const lastSentKey = "digest:last_sent_at"

// Entry is one report block in the rendered digest.
type Entry struct {
	StockCode   string
	StockName   string
	ReportYear  int
	PublishDate *time.Time
	Business    *string
	Future      *string
	CreatedAt   time.Time
}

// Digest is the daily summary worker. Start schedules delivery at the
// configured hour; Preview builds the pending digest without advancing the
// watermark.
type Digest struct {
	sqldb   *database.SQLDB
	redis   *cache.RedisClient
	webhook *notifications.WebhookManager
	cfg     config.DigestConfig

	stopChan chan struct{}
}

// New creates a new digest worker
func New(sqldb *database.SQLDB, redis *cache.RedisClient, webhook *notifications.WebhookManager, cfg config.DigestConfig) *Digest {
	return &Digest{
		sqldb:    sqldb,
		redis:    redis,
		webhook:  webhook,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// Start runs the daily delivery loop
func (d *Digest) Start() {
	log.Printf("📬 Digest worker started (daily at %02d:00)", d.cfg.HourOfDay)
	for {
		next := nextFiring(time.Now(), d.cfg.HourOfDay)
		select {
		case <-d.stopChan:
			return
		case <-time.After(time.Until(next)):
			if err := d.RunIncremental(); err != nil {
				log.Printf("⚠️  Digest run failed: %v", err)
			}
		}
	}
}

// Stop stops the delivery loop
func (d *Digest) Stop() {
	close(d.stopChan)
}

// nextFiring returns the next occurrence of the given local hour after now.
func nextFiring(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunIncremental builds and delivers the digest for (last_sent_at, now],
// then advances the watermark. An empty window advances the watermark
// without delivering anything.
func (d *Digest) RunIncremental() error {
	now := time.Now()
	since := d.lastSentAt(now)

	entries, err := d.FetchSince(since, now)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		log.Printf("📬 No new MDA entries since %s, nothing to send", since.Format("2006-01-02 15:04:05"))
		d.saveLastSentAt(now)
		return nil
	}

	subject, body := d.Render(entries, now)
	d.webhook.SendDigest(subject, body, len(entries))
	d.saveLastSentAt(now)
	log.Printf("✅ Digest delivered: %d reports", len(entries))
	return nil
}

// Preview builds the currently pending digest without touching the watermark.
func (d *Digest) Preview() (string, []Entry, error) {
	now := time.Now()
	entries, err := d.FetchSince(d.lastSentAt(now), now)
	if err != nil {
		return "", nil, err
	}
	_, body := d.Render(entries, now)
	return body, entries, nil
}

// PreviewByDate builds a digest for one disclosure date, for manual reruns.
// The watermark is never touched.
func (d *Digest) PreviewByDate(date time.Time) (string, []Entry, error) {
	entries, err := d.FetchByPublishDate(date)
	if err != nil {
		return "", nil, err
	}
	_, body := d.Render(entries, time.Now())
	return body, entries, nil
}

// PreviewToday builds a digest of everything ingested since today 00:00,
// ignoring the delivery watermark entirely. The watermark is never touched.
func (d *Digest) PreviewToday() (string, []Entry, error) {
	now := time.Now()
	entries, err := d.FetchSince(startOfDay(now), now)
	if err != nil {
		return "", nil, err
	}
	_, body := d.Render(entries, now)
	return body, entries, nil
}

// startOfDay is today 00:00 local time: the absent-watermark fallback and the
// floor of the today-only preview mode.
func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// lastSentAt reads the delivery watermark; absent state falls back to today
// 00:00 local time.
func (d *Digest) lastSentAt(now time.Time) time.Time {
	var stored string
	if err := d.redis.Get(context.Background(), lastSentKey, &stored); err == nil {
		if t, err := time.Parse(time.RFC3339, stored); err == nil {
			return t
		}
	}
	return startOfDay(now)
}

func (d *Digest) saveLastSentAt(t time.Time) {
	if err := d.redis.Set(context.Background(), lastSentKey, t.Format(time.RFC3339), 0); err != nil {
		log.Printf("⚠️  Failed to persist digest watermark: %v", err)
	}
}

const fetchSinceSQL = `
SELECT r.stock_code, r.stock_name, r.report_year, r.publish_date,
       m.main_business_section, m.future_section, m.created_at
FROM annual_report_mda m
JOIN annual_reports r ON r.id = m.report_id
WHERE m.created_at > $1 AND m.created_at <= $2
ORDER BY r.publish_date DESC NULLS LAST, r.stock_code ASC`

const fetchByPublishDateSQL = `
SELECT r.stock_code, r.stock_name, r.report_year, r.publish_date,
       m.main_business_section, m.future_section, m.created_at
FROM annual_report_mda m
JOIN annual_reports r ON r.id = m.report_id
WHERE r.publish_date = $1
ORDER BY r.stock_code ASC`

// FetchSince returns digest entries whose MDA rows landed inside
// (since, until].
func (d *Digest) FetchSince(since, until time.Time) ([]Entry, error) {
	rows, err := d.sqldb.GetConn().Query(fetchSinceSQL, since, until)
	if err != nil {
		return nil, fmt.Errorf("digest query: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FetchByPublishDate returns digest entries for one disclosure date. Manual
// reruns use this path; it never touches the watermark.
func (d *Digest) FetchByPublishDate(date time.Time) ([]Entry, error) {
	rows, err := d.sqldb.GetConn().Query(fetchByPublishDateSQL, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("digest query by date: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var name, business, future sql.NullString
		var publishDate sql.NullTime
		if err := rows.Scan(&e.StockCode, &name, &e.ReportYear, &publishDate, &business, &future, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("digest scan: %w", err)
		}
		if name.Valid {
			e.StockName = name.String
		}
		if publishDate.Valid {
			t := publishDate.Time
			e.PublishDate = &t
		}
		if business.Valid {
			e.Business = &business.String
		}
		if future.Valid {
			e.Future = &future.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Render produces the digest subject and plain-text body.
func (d *Digest) Render(entries []Entry, now time.Time) (subject, body string) {
	subject = fmt.Sprintf("年报摘录汇总 %s（%d 家）", now.Format("2006-01-02"), len(entries))

	var sb strings.Builder
	sb.WriteString(subject)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 40))
	sb.WriteString("\n\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s %s（%d年年报）\n", e.StockCode, e.StockName, e.ReportYear))
		if e.PublishDate != nil {
			sb.WriteString(fmt.Sprintf("披露日期：%s\n", e.PublishDate.Format("2006-01-02")))
		}
		if e.Business != nil {
			sb.WriteString("【经营情况】\n")
			sb.WriteString(truncateRunes(*e.Business, d.cfg.MaxSectionLen))
			sb.WriteString("\n")
		}
		if e.Future != nil {
			sb.WriteString("【未来展望】\n")
			sb.WriteString(truncateRunes(*e.Future, d.cfg.MaxSectionLen))
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n\n")
	}
	return subject, sb.String()
}

// truncateRunes caps s at n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "……"
}
