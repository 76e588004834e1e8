package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogd/models"
	"blogd/utils"
)

// CategoryController manages the self-referencing category tree with
// read-through caching. Tag bookkeeping: one tag per category plus a single
// index tag, so any mutation evicts exactly the cached views it can affect.
type CategoryController struct {
	db    *gorm.DB
	cache utils.TagCache
}

// NewCategoryController creates a CategoryController.
func NewCategoryController(db *gorm.DB, cache utils.TagCache) *CategoryController {
	return &CategoryController{db: db, cache: cache}
}

// CreateCategory adds a category, optionally under a parent. Names are
// globally unique regardless of parent.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := utils.Sanitize(strings.TrimSpace(req.Name))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, "name cannot be empty")
		return
	}

	var existing models.Category
	if err := c.db.Where("name = ?", name).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusBadRequest, "category name already exists")
		return
	}

	if req.ParentID != nil {
		var parent models.Category
		if err := c.db.First(&parent, *req.ParentID).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, "parent category not found")
			return
		}
	}

	category := models.Category{Name: name, ParentID: req.ParentID}
	if err := c.db.Create(&category).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error creating category", err)
		return
	}

	c.cache.Flush(utils.CategoryIndexTag)
	if category.ParentID != nil {
		c.cache.Flush(utils.CategoryTag(*category.ParentID))
	}

	utils.Success(ctx, http.StatusCreated, "Category created successfully", gin.H{"category": category})
}

// ListCategories returns all root categories with their direct
// subcategories, read-through cached under the index tag.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	const cacheKey = "categories:roots"
	if b, ok := c.cache.Get(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var categories []models.Category
	if err := c.db.Preload("Subcategories").Where("parent_id IS NULL").Find(&categories).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error fetching categories", err)
		return
	}

	utils.CacheSetJSON(c.cache, cacheKey, categories, utils.DefaultCacheTTL, utils.CategoryIndexTag)
	ctx.JSON(http.StatusOK, categories)
}

// GetCategory returns a category with its direct subcategories,
// read-through cached under the category's own tag.
func (c *CategoryController) GetCategory(ctx *gin.Context) {
	id := ctx.Param("id")

	cacheKey := "categories:show:" + id
	if b, ok := c.cache.Get(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var category models.Category
	if err := c.db.Preload("Subcategories").First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error fetching category", err)
		return
	}

	utils.CacheSetJSON(c.cache, cacheKey, category, utils.DefaultCacheTTL, utils.CategoryTag(category.ID))
	ctx.JSON(http.StatusOK, category)
}

// UpdateCategory renames a category and/or moves it under a new parent. A
// parent change flushes the index, the category itself, the old parent and
// the new parent.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		ParentID *uint   `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error updating category", err)
		return
	}

	oldParentID := category.ParentID

	if req.Name != nil {
		name := utils.Sanitize(strings.TrimSpace(*req.Name))
		if name == "" {
			utils.Error(ctx, http.StatusBadRequest, "name cannot be empty")
			return
		}
		if name != category.Name {
			var existing models.Category
			if err := c.db.Where("name = ?", name).First(&existing).Error; err == nil {
				utils.Error(ctx, http.StatusBadRequest, "category name already exists")
				return
			}
			category.Name = name
		}
	}

	parentChanged := false
	if req.ParentID != nil && (oldParentID == nil || *req.ParentID != *oldParentID) {
		var parent models.Category
		if err := c.db.First(&parent, *req.ParentID).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, "parent category not found")
			return
		}
		if cycle, err := c.wouldCycle(category.ID, *req.ParentID); err != nil {
			utils.ErrorWith(ctx, http.StatusInternalServerError, "Error updating category", err)
			return
		} else if cycle {
			utils.Error(ctx, http.StatusBadRequest, "category cannot be its own ancestor")
			return
		}
		category.ParentID = req.ParentID
		parentChanged = true
	}

	if err := c.db.Save(&category).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error updating category", err)
		return
	}

	c.cache.Flush(utils.CategoryIndexTag, utils.CategoryTag(category.ID))
	if parentChanged {
		if oldParentID != nil {
			c.cache.Flush(utils.CategoryTag(*oldParentID))
		}
		c.cache.Flush(utils.CategoryTag(*category.ParentID))
	}

	utils.Success(ctx, http.StatusOK, "Category updated successfully", gin.H{"category": category})
}

// wouldCycle walks the ancestor chain from newParentID and reports whether
// it reaches id, which would turn the tree into a cycle.
func (c *CategoryController) wouldCycle(id, newParentID uint) (bool, error) {
	current := newParentID
	for {
		if current == id {
			return true, nil
		}
		var node models.Category
		if err := c.db.Select("id", "parent_id").First(&node, current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, err
		}
		if node.ParentID == nil {
			return false, nil
		}
		current = *node.ParentID
	}
}

// DeleteCategory removes a category; descendants go with it via the
// storage-layer cascade.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error deleting category", err)
		return
	}

	if err := c.db.Delete(&category).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "Error deleting category", err)
		return
	}

	c.cache.Flush(utils.CategoryIndexTag, utils.CategoryTag(category.ID))
	if category.ParentID != nil {
		c.cache.Flush(utils.CategoryTag(*category.ParentID))
	}

	utils.Success(ctx, http.StatusOK, "Category deleted successfully", nil)
}
