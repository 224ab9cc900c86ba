package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"ragsync/internal/model"
)

// ReportCache keeps the most recent reconciliation report per scope so the
// API can answer "what happened last" without hitting the audit table.
type ReportCache struct {
	client    *redisv9.Client
	reportTTL time.Duration
}

func NewReportCache(client *redisv9.Client, reportTTL time.Duration) *ReportCache {
	if reportTTL <= 0 {
		reportTTL = 24 * time.Hour
	}
	return &ReportCache{
		client:    client,
		reportTTL: reportTTL,
	}
}

func (c *ReportCache) GetLast(ctx context.Context, domain, providerType, kind string) (*model.SyncReport, bool, error) {
	key := c.reportKey(domain, providerType, kind)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get report failed: %w", err)
	}

	var report model.SyncReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached report failed: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) SetLast(ctx context.Context, report model.SyncReport) error {
	key := c.reportKey(report.Domain, report.ProviderType, report.Kind)
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.reportTTL).Err(); err != nil {
		return fmt.Errorf("redis set report failed: %w", err)
	}
	return nil
}

func (c *ReportCache) Delete(ctx context.Context, domain, providerType, kind string) error {
	key := c.reportKey(domain, providerType, kind)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete report failed: %w", err)
	}
	return nil
}

func (c *ReportCache) reportKey(domain, providerType, kind string) string {
	if domain == "" {
		domain = "-"
	}
	return fmt.Sprintf("sync:report:last:%s:%s:%s", domain, providerType, kind)
}
