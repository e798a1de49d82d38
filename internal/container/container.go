package container

import (
	"context"
	"log"
	"os"

	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/aimlink"
	"github.com/mkravets/orbita-api/internal/auth"
	"github.com/mkravets/orbita-api/internal/cache"
	"github.com/mkravets/orbita-api/internal/cascade"
	"github.com/mkravets/orbita-api/internal/config"
	"github.com/mkravets/orbita-api/internal/user"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	UserContainer    *user.UserContainer
	AimContainer     *aim.AimContainer
	CascadeContainer *cascade.CascadeContainer
	LinkRegistry     aimlink.Registry
	CacheStore       cache.Store
}

func New() *Container {
	config.Init()
	auth.Init()

	dsn := os.Getenv("DATABASE_DSN")
	if err := config.Connect(context.Background(), dsn); err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	if err := config.DB.AutoMigrate(&user.User{}, &aim.Aim{}, &aimlink.AimLink{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	var store cache.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		store = cache.NewRedisStore(client)
	} else {
		store = cache.NewMemoryStore()
	}

	userContainer := user.NewUserContainer(config.DB)
	linkRegistry := aimlink.NewRegistry(config.DB)
	aimContainer := aim.NewAimContainer(config.DB, linkRegistry, cache.NewAimCache(store))
	cascadeContainer := cascade.NewCascadeContainer(
		aimContainer.Repo,
		linkRegistry,
		store,
		aimContainer.Service,
	)

	return &Container{
		UserContainer:    userContainer,
		AimContainer:     aimContainer,
		CascadeContainer: cascadeContainer,
		LinkRegistry:     linkRegistry,
		CacheStore:       store,
	}
}
