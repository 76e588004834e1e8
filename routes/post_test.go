package routes_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"blogd/models"
	"blogd/utils"
)

func (e *testEnv) createPost(t *testing.T, token string, body gin.H) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/posts", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode(t, w)["post"].(map[string]any)
	return uint(post["id"].(float64))
}

func (e *testEnv) listItems(t *testing.T, query string) []map[string]any {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/v1/posts"+query, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Items
}

func TestCreatePostStatusDerivation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		body gin.H
		want string
	}{
		{"no publish time defaults to draft", gin.H{"title": "a", "content": "x"}, models.StatusDraft},
		{"explicit status without publish time", gin.H{"title": "b", "content": "x", "status": models.StatusDraft}, models.StatusDraft},
		{"past publish time means published", gin.H{"title": "c", "content": "x", "published_at": past}, models.StatusPublished},
		{"future publish time means scheduled", gin.H{"title": "d", "content": "x", "published_at": future}, models.StatusScheduled},
		{"publish time wins over explicit status", gin.H{"title": "e", "content": "x", "published_at": future, "status": models.StatusDraft}, models.StatusScheduled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := env.createPost(t, token, tc.body)
			var post models.Post
			require.NoError(t, env.db.First(&post, id).Error)
			require.Equal(t, tc.want, post.Status)
		})
	}
}

func TestCreatePostInvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	w := env.do(t, http.MethodPost, "/api/v1/posts", gin.H{"title": "a", "content": "x", "status": "bogus"}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid status", decode(t, w)["message"])
}

func TestCreatePostCategoryNotFound(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	w := env.do(t, http.MethodPost, "/api/v1/posts", gin.H{"title": "a", "content": "x", "category_id": 9999}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "category not found", decode(t, w)["message"])
}

func TestCreatePostSanitizesContent(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	id := env.createPost(t, token, gin.H{
		"title":   "Safe title",
		"content": `hello <script>alert(1)</script>world`,
	})

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	require.NotContains(t, post.Content, "<script>")
	require.Contains(t, post.Content, "hello")
}

func TestListPostsVisibility(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	env.createPost(t, token, gin.H{"title": "visible", "content": "x", "published_at": past})
	env.createPost(t, token, gin.H{"title": "pending", "content": "x", "published_at": future})
	env.createPost(t, token, gin.H{"title": "hidden", "content": "x", "status": models.StatusArchived})
	env.createPost(t, token, gin.H{"title": "unpublished", "content": "x"})

	items := env.listItems(t, "")
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item["title"].(string))
	}
	require.Contains(t, titles, "visible")
	// Drafts have no publish time and stay listed; scheduled and archived do not
	require.Contains(t, titles, "unpublished")
	require.NotContains(t, titles, "pending")
	require.NotContains(t, titles, "hidden")
}

func TestListPostsFilters(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceID := env.register(t, "alice@b.com", "password123")
	bob, _ := env.register(t, "bob@b.com", "password123")

	catID := env.createCategory(t, alice, "Go", nil)
	past := time.Now().Add(-time.Hour)

	env.createPost(t, alice, gin.H{"title": "gophers at work", "content": "x", "category_id": catID, "published_at": past})
	env.createPost(t, alice, gin.H{"title": "other topic", "content": "nothing here", "published_at": past})
	env.createPost(t, bob, gin.H{"title": "bob writes", "content": "gophers again", "published_at": past})

	items := env.listItems(t, "?search=gophers")
	require.Len(t, items, 2)

	items = env.listItems(t, "?category_id="+itoa(catID))
	require.Len(t, items, 1)
	require.Equal(t, "gophers at work", items[0]["title"])

	items = env.listItems(t, "?user_id="+itoa(aliceID))
	require.Len(t, items, 2)

	items = env.listItems(t, "?user_id="+itoa(aliceID)+"&search=gophers")
	require.Len(t, items, 1)
}

func TestListPostsPagination(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	past := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		env.createPost(t, token, gin.H{"title": "post", "content": "x", "published_at": past.Add(time.Duration(i) * time.Minute)})
	}

	w := env.do(t, http.MethodGet, "/api/v1/posts?page=1&page_size=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Len(t, body["items"], 2)
	pagination := body["pagination"].(map[string]any)
	require.EqualValues(t, 3, pagination["total"])
	require.EqualValues(t, 2, pagination["total_pages"])

	items := env.listItems(t, "?page=2&page_size=2")
	require.Len(t, items, 1)
}

func TestListPostsCacheFlushedOnCreate(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	past := time.Now().Add(-time.Hour)
	env.createPost(t, token, gin.H{"title": "first", "content": "x", "published_at": past})

	require.Len(t, env.listItems(t, ""), 1)

	env.createPost(t, token, gin.H{"title": "second", "content": "x", "published_at": past})
	require.Len(t, env.listItems(t, ""), 2)
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	catID := env.createCategory(t, token, "Go", nil)
	id := env.createPost(t, token, gin.H{"title": "one", "content": "x", "category_id": catID})

	w := env.do(t, http.MethodGet, "/api/v1/posts/"+itoa(id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	require.Equal(t, "one", post.Title)
	require.NotNil(t, post.Author)
	require.Equal(t, "author@b.com", post.Author.Email)
	require.NotNil(t, post.Category)
	require.Equal(t, "Go", post.Category.Name)

	w = env.do(t, http.MethodGet, "/api/v1/posts/9999", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Post not found", decode(t, w)["message"])
}

func TestGetPostCacheRefreshedOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	id := env.createPost(t, token, gin.H{"title": "before", "content": "x"})

	// Warm the cache
	w := env.do(t, http.MethodGet, "/api/v1/posts/"+itoa(id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/posts/"+itoa(id), gin.H{"title": "after"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/posts/"+itoa(id), nil, "")
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	require.Equal(t, "after", post.Title)
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.register(t, "alice@b.com", "password123")
	bob, _ := env.register(t, "bob@b.com", "password123")

	id := env.createPost(t, alice, gin.H{"title": "mine", "content": "x"})

	w := env.do(t, http.MethodPut, "/api/v1/posts/"+itoa(id), gin.H{"title": "stolen"}, bob)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Unauthorized", decode(t, w)["message"])

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	require.Equal(t, "mine", post.Title)
}

func TestUpdatePostRederivesStatus(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	id := env.createPost(t, token, gin.H{"title": "a", "content": "x"})

	future := time.Now().Add(time.Hour)
	w := env.do(t, http.MethodPut, "/api/v1/posts/"+itoa(id), gin.H{"published_at": future}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	require.Equal(t, models.StatusScheduled, post.Status)

	past := time.Now().Add(-time.Hour)
	w = env.do(t, http.MethodPut, "/api/v1/posts/"+itoa(id), gin.H{"published_at": past}, token)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&post, id).Error)
	require.Equal(t, models.StatusPublished, post.Status)
}

func TestUpdatePostArchiveClearsPublishTime(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	past := time.Now().Add(-time.Hour)
	id := env.createPost(t, token, gin.H{"title": "a", "content": "x", "published_at": past})

	w := env.do(t, http.MethodPut, "/api/v1/posts/"+itoa(id), gin.H{"status": models.StatusArchived}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	require.Equal(t, models.StatusArchived, post.Status)
	require.Nil(t, post.PublishedAt)
}

func TestUpdatePostNotFound(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	w := env.do(t, http.MethodPut, "/api/v1/posts/9999", gin.H{"title": "x"}, token)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduledPostPromotedBySweep(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "author@b.com", "password123")

	future := time.Now().Add(24 * time.Hour)
	id := env.createPost(t, token, gin.H{"title": "tomorrow", "content": "x", "published_at": future})

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	require.Equal(t, models.StatusScheduled, post.Status)
	require.Empty(t, env.listItems(t, ""))

	// Make the publish time arrive, then sweep
	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", id).
		Update("published_at", time.Now().Add(-time.Minute)).Error)

	count, err := utils.PublishDuePosts(env.db, env.cache)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, env.db.First(&post, id).Error)
	require.Equal(t, models.StatusPublished, post.Status)

	items := env.listItems(t, "")
	require.Len(t, items, 1)
	require.Equal(t, "tomorrow", items[0]["title"])
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.register(t, "alice@b.com", "password123")
	bob, _ := env.register(t, "bob@b.com", "password123")

	id := env.createPost(t, alice, gin.H{"title": "a", "content": "x"})

	w := env.do(t, http.MethodDelete, "/api/v1/posts/"+itoa(id), nil, bob)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/posts/"+itoa(id), nil, alice)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/posts/"+itoa(id), nil, alice)
	require.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	env.db.Model(&models.Post{}).Where("id = ?", id).Count(&count)
	require.Zero(t, count)
}
