package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"vetvalidator/internal/model"
)

// SessionReport is the cached read-model for one session: its active results
// and the aggregate quality metrics.
type SessionReport struct {
	Session   model.ValidationSession  `json:"session"`
	Results   []model.ValidationResult `json:"results"`
	Citations [][]model.Citation       `json:"citations"`
	Metrics   model.QualityMetrics     `json:"metrics"`
}

// ReportCache keeps session reports in redis. A short-lived dirty marker,
// set by writers, stops a reader from re-caching a report that is being
// superseded mid-write.
type ReportCache struct {
	client         *redisv9.Client
	reportTTL      time.Duration
	dirtyMarkerTTL time.Duration
}

func NewReportCache(client *redisv9.Client, reportTTL, dirtyMarkerTTL time.Duration) *ReportCache {
	if reportTTL <= 0 {
		reportTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &ReportCache{
		client:         client,
		reportTTL:      reportTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *ReportCache) GetReport(ctx context.Context, sessionID uint) (*SessionReport, bool, error) {
	raw, err := c.client.Get(ctx, c.reportKey(sessionID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get report failed: %w", err)
	}

	var report SessionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached report failed: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) SetReport(ctx context.Context, sessionID uint, report *SessionReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.reportKey(sessionID), payload, c.reportTTL).Err(); err != nil {
		return fmt.Errorf("redis set report failed: %w", err)
	}
	return nil
}

func (c *ReportCache) DeleteReport(ctx context.Context, sessionID uint) error {
	if err := c.client.Del(ctx, c.reportKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete report failed: %w", err)
	}
	return nil
}

func (c *ReportCache) MarkDirty(ctx context.Context, sessionID uint) error {
	if err := c.client.Set(ctx, c.dirtyKey(sessionID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *ReportCache) IsDirty(ctx context.Context, sessionID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *ReportCache) reportKey(sessionID uint) string {
	return fmt.Sprintf("validation:report:%d", sessionID)
}

func (c *ReportCache) dirtyKey(sessionID uint) string {
	return fmt.Sprintf("validation:report:dirty:%d", sessionID)
}
