package main

import (
	"time"

	"blogd/config"
	"blogd/models"
	"blogd/routes"
	"blogd/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.AuthCode{}, &models.Category{}, &models.Post{})

	var cache utils.TagCache
	if rc := utils.GetRedis(); rc != nil {
		cache = utils.NewRedisTagCache(rc)
	} else {
		utils.Sugar.Warn("redis not configured, falling back to in-memory cache")
		cache = utils.NewMemoryTagCache()
	}
	utils.SetBlacklistCache(cache)

	r := routes.SetupRouter(db, cache)

	// Periodic sweep promoting due scheduled posts to published
	utils.StartPublisher(db, cache, time.Duration(cfg.PublishIntervalSec)*time.Second)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
