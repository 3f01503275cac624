package models

import "time"

// CrawlStats summarizes a finished crawl run.
type CrawlStats struct {
	RunID            string        `json:"run_id"`
	SeedURL          string        `json:"seed_url"`
	AssetsDiscovered int64         `json:"assets_discovered"`
	AssetsFetched    int64         `json:"assets_fetched"`
	AssetsFailed     int64         `json:"assets_failed"`
	FindingsCount    int           `json:"findings_count"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	Interrupted      bool          `json:"interrupted"`
}

// FindingsByService groups findings by the pattern name that produced them.
func FindingsByService(findings []Finding) map[string][]Finding {
	grouped := make(map[string][]Finding)
	for _, f := range findings {
		grouped[f.ServiceName] = append(grouped[f.ServiceName], f)
	}
	return grouped
}
