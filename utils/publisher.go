package utils

import (
	"time"

	"gorm.io/gorm"

	"blogd/models"
)

// PublishDuePosts promotes every scheduled post whose publish time has
// arrived in a single bulk conditional update and returns the number of
// rows changed. The predicate is idempotent: a re-run only affects rows
// still meeting the condition.
func PublishDuePosts(db *gorm.DB, cache TagCache) (int64, error) {
	res := db.Model(&models.Post{}).
		Where("status = ? AND published_at <= ?", models.StatusScheduled, time.Now()).
		Update("status", models.StatusPublished)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 && cache != nil {
		// Promoted posts become visible in public listings
		cache.Flush(PostsIndexTag)
	}
	return res.RowsAffected, nil
}

// StartPublisher launches a background goroutine that periodically runs the
// publish sweep. It is best-effort and logs failures; a failed sweep is
// simply retried on the next tick.
func StartPublisher(db *gorm.DB, cache TagCache, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			count, err := PublishDuePosts(db, cache)
			if err != nil {
				if Sugar != nil {
					Sugar.Warnf("publish sweep failed: %v", err)
				}
				continue
			}
			if count > 0 && Sugar != nil {
				Sugar.Infof("published %d scheduled post(s)", count)
			}
		}
	}()
}
