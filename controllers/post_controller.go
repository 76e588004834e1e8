package controllers

import (
	"crypto/md5"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogd/middleware"
	"blogd/models"
	"blogd/utils"
)

// PostController manages CRUD over posts and their publication lifecycle.
// Listings and single-post reads are cache-through; every mutation flushes
// the listing index tag plus, where one exists, the post's own tag.
type PostController struct {
	db    *gorm.DB
	cache utils.TagCache
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, cache utils.TagCache) *PostController {
	return &PostController{db: db, cache: cache}
}

// CreatePost creates a post owned by the caller. A supplied publish time
// decides the status: future means scheduled, past means published.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Content     string     `json:"content" binding:"required"`
		CategoryID  *uint      `json:"category_id"`
		PublishedAt *time.Time `json:"published_at"`
		Status      string     `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	if req.Status != "" && !models.ValidStatus(req.Status) {
		utils.Error(ctx, http.StatusBadRequest, "invalid status")
		return
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := p.db.First(&category, *req.CategoryID).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, "category not found")
			return
		}
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	post := models.Post{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       title,
		Content:     content,
		PublishedAt: req.PublishedAt,
		Status:      models.DeriveStatus(req.PublishedAt, req.Status, time.Now()),
	}
	if post.Status == models.StatusArchived {
		post.PublishedAt = nil
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error creating post", err)
		return
	}

	// A new post cannot be cached under a specific id yet
	p.cache.Flush(utils.PostsIndexTag)

	utils.Success(ctx, http.StatusCreated, "Post created successfully", gin.H{"post": post})
}

// ListPosts returns publicly visible posts: never archived, never
// future-dated. Filters: user_id, category_id, search (title or content).
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	filters := map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}
	for _, key := range []string{"user_id", "category_id", "search"} {
		if v := strings.TrimSpace(ctx.Query(key)); v != "" {
			filters[key] = v
		}
	}

	cacheKey := "posts:list:" + fingerprint(filters)
	if b, ok := p.cache.Get(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	query := p.db.Model(&models.Post{}).
		Where("status <> ?", models.StatusArchived).
		Where("published_at IS NULL OR published_at <= ?", time.Now())

	if v, ok := filters["user_id"]; ok {
		query = query.Where("user_id = ?", v)
	}
	if v, ok := filters["category_id"]; ok {
		query = query.Where("category_id = ?", v)
	}
	if v, ok := filters["search"]; ok {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+v+"%", "%"+v+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error fetching posts", err)
		return
	}

	var posts []models.Post
	err := query.Preload("Author").Preload("Category").
		Order("published_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error fetching posts", err)
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(p.cache, cacheKey, payload, utils.DefaultCacheTTL, utils.PostsIndexTag)
	ctx.JSON(http.StatusOK, payload)
}

// GetPost returns a single post with author and category, read-through
// cached under the post's own tag.
func (p *PostController) GetPost(ctx *gin.Context) {
	id := ctx.Param("id")

	cacheKey := "posts:show:" + id
	if b, ok := p.cache.Get(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var post models.Post
	if err := p.db.Preload("Author").Preload("Category").First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error retrieving post", err)
		return
	}

	utils.CacheSetJSON(p.cache, cacheKey, post, utils.DefaultCacheTTL, utils.PostTag(post.ID))
	ctx.JSON(http.StatusOK, post)
}

// UpdatePost lets the owner change a post. A supplied publish time
// re-derives the status; forcing archived clears the publish time.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title       *string    `json:"title"`
		Content     *string    `json:"content"`
		CategoryID  *uint      `json:"category_id"`
		PublishedAt *time.Time `json:"published_at"`
		Status      string     `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	if req.Status != "" && !models.ValidStatus(req.Status) {
		utils.Error(ctx, http.StatusBadRequest, "invalid status")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error updating post", err)
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, "Unauthorized")
		return
	}

	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, "title cannot be empty")
			return
		}
		post.Title = title
	}
	if req.Content != nil {
		post.Content = utils.Sanitize(*req.Content)
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := p.db.First(&category, *req.CategoryID).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, "category not found")
			return
		}
		post.CategoryID = req.CategoryID
	}

	// The publish time wins over an explicit status; archived clears it
	if req.PublishedAt != nil {
		post.PublishedAt = req.PublishedAt
		post.Status = models.DeriveStatus(req.PublishedAt, "", time.Now())
	} else if req.Status != "" {
		post.Status = req.Status
	}
	if post.Status == models.StatusArchived {
		post.PublishedAt = nil
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error updating post", err)
		return
	}

	p.cache.Flush(utils.PostsIndexTag, utils.PostTag(post.ID))

	utils.Success(ctx, http.StatusOK, "Post updated successfully", gin.H{"post": post})
}

// DeletePost lets the owner delete a post unconditionally.
func (p *PostController) DeletePost(ctx *gin.Context) {
	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error deleting post", err)
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, "Unauthorized")
		return
	}

	if err := p.db.Delete(&post).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error deleting post", err)
		return
	}

	p.cache.Flush(utils.PostsIndexTag, utils.PostTag(post.ID))

	utils.Success(ctx, http.StatusOK, "Post deleted successfully", nil)
}

// fingerprint builds an order-independent hash of the normalized filter
// set, so every distinct filter combination gets its own cache entry under
// the shared index tag.
func fingerprint(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(filters[k])
		sb.WriteByte('&')
	}
	return fmt.Sprintf("%x", md5.Sum([]byte(sb.String())))
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 15
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
