package models

import "time"

// DailyFeatureStat aggregates how often a metered feature was requested per
// day. Rows are incremented in Redis and flushed to MySQL in batches.
type DailyFeatureStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"type:char(10);not null;index:ux_daily_feature_stats_date_feature,unique,priority:1" json:"date"`
	Feature   string    `gorm:"type:varchar(30);not null;index:ux_daily_feature_stats_date_feature,unique,priority:2" json:"feature"`
	Count     int64     `gorm:"default:0" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
