package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"reportclaw/cache"
	"reportclaw/database"
)

const (
	maxRetries = 3
	retryDelay = 2 * time.Second

	sentKeyTTL = 7 * 24 * time.Hour
)

// WebhookManager delivers ingest and digest notifications to the configured
// endpoint list. Delivery is fire-and-forget with bounded retries; a redis
// sent-marker keeps restarts from re-announcing the same report.
type WebhookManager struct {
	urls   []string
	redis  *cache.RedisClient
	client *http.Client
}

// ReportPayload represents the JSON payload sent for a newly ingested report
type ReportPayload struct {
	Event       string     `json:"Event"`
	ReportID    int64      `json:"ReportID"`
	StockCode   string     `json:"StockCode"`
	StockName   string     `json:"StockName,omitempty"`
	ReportYear  int        `json:"ReportYear"`
	PublishDate *time.Time `json:"PublishDate,omitempty"`
	HasBusiness bool       `json:"HasBusiness"`
	HasFuture   bool       `json:"HasFuture"`
	Message     string     `json:"Message"`
}

// DigestPayload represents the JSON payload sent for a daily digest
type DigestPayload struct {
	Event       string    `json:"Event"`
	Subject     string    `json:"Subject"`
	ReportCount int       `json:"ReportCount"`
	Body        string    `json:"Body"`
	GeneratedAt time.Time `json:"GeneratedAt"`
}

// NewWebhookManager creates a new webhook manager
func NewWebhookManager(urls []string, redis *cache.RedisClient) *WebhookManager {
	return &WebhookManager{
		urls:  urls,
		redis: redis,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether any endpoint is configured
func (wm *WebhookManager) Enabled() bool {
	return wm != nil && len(wm.urls) > 0
}

// SendReport announces a newly ingested annual report
func (wm *WebhookManager) SendReport(report *database.AnnualReport, mda *database.AnnualReportMDA) {
	if !wm.Enabled() {
		return
	}

	sentKey := fmt.Sprintf("webhook_sent:report:%d", report.ID)
	if wm.redis.Exists(context.Background(), sentKey) {
		return
	}

	name := ""
	if report.StockName != nil {
		name = *report.StockName
	}
	payload := ReportPayload{
		Event:       "report_ingested",
		ReportID:    report.ID,
		StockCode:   report.StockCode,
		StockName:   name,
		ReportYear:  report.ReportYear,
		PublishDate: report.PublishDate,
		HasBusiness: mda != nil && mda.MainBusinessSection != nil,
		HasFuture:   mda != nil && mda.FutureSection != nil,
		Message:     fmt.Sprintf("📰 NEW ANNUAL REPORT %s %s (%d)", report.StockCode, name, report.ReportYear),
	}

	wm.fanOut(payload)
	_ = wm.redis.Set(context.Background(), sentKey, true, sentKeyTTL)
}

// SendDigest delivers a rendered daily digest
func (wm *WebhookManager) SendDigest(subject, body string, reportCount int) {
	if !wm.Enabled() {
		return
	}

	wm.fanOut(DigestPayload{
		Event:       "daily_digest",
		Subject:     subject,
		ReportCount: reportCount,
		Body:        body,
		GeneratedAt: time.Now(),
	})
}

func (wm *WebhookManager) fanOut(payload interface{}) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal webhook payload: %v", err)
		return
	}
	for _, url := range wm.urls {
		go wm.deliver(url, payloadBytes)
	}
}

func (wm *WebhookManager) deliver(url string, payload []byte) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
		if err != nil {
			log.Printf("⚠️  Webhook request build failed: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "ReportClaw-Notify/1.0")

		log.Printf("🔹 Sending webhook to %s (Attempt %d/%d)", url, attempt, maxRetries)

		resp, err := wm.client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			resp.Body.Close()
			return
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}
	log.Printf("⚠️  Webhook delivery to %s failed: %v", url, lastErr)
}
