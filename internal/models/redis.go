package models

import "time"

// CachedNews is the value stored by the news cache.
type CachedNews struct {
	Key      string     `json:"key"`
	Items    []NewsItem `json:"items"`
	CachedAt time.Time  `json:"cached_at"`
}
