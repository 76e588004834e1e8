package utils

import "strconv"

// Cache tags partition cached views so a mutation can evict exactly the
// entries it may affect: one tag per entity plus a single index tag per
// listing.
const (
	PostsIndexTag     = "posts:index"
	CategoryIndexTag  = "categories:index"
	postTagPrefix     = "post:"
	categoryTagPrefix = "category:"
)

// PostTag returns the per-entity tag for a post id.
func PostTag(id uint) string {
	return postTagPrefix + strconv.FormatUint(uint64(id), 10)
}

// CategoryTag returns the per-entity tag for a category id.
func CategoryTag(id uint) string {
	return categoryTagPrefix + strconv.FormatUint(uint64(id), 10)
}
