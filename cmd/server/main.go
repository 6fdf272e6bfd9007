package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/blacktwitter/blacktwitter/internal/auth"
	"github.com/blacktwitter/blacktwitter/internal/config"
	"github.com/blacktwitter/blacktwitter/internal/database"
	"github.com/blacktwitter/blacktwitter/internal/handler"
	"github.com/blacktwitter/blacktwitter/internal/queue"
	"github.com/blacktwitter/blacktwitter/internal/repository"
	"github.com/blacktwitter/blacktwitter/internal/router"
	queue_publisher "github.com/blacktwitter/blacktwitter/internal/service"
	"github.com/blacktwitter/blacktwitter/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(database.Config{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	adminHash, err := utils.HashPassword(cfg.AdminPass, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	if err := database.EnsureAdmin(ctx, db, cfg.AdminUser, adminHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	rdb := config.NewRedisClient()

	// Pending 2FA challenges live in Redis so they expire and survive
	// restarts; without Redis an in-process store keeps login working.
	var pending auth.PendingStore
	if rdb != nil {
		pending = auth.NewRedisPendingStore(rdb)
	} else {
		pending = auth.NewMemoryPendingStore()
	}

	users := &repository.UserRepo{DB: db}
	tokens := &repository.TokenRepo{DB: db}
	posts := &repository.PostRepo{DB: db}
	comments := &repository.CommentRepo{DB: db}
	likes := &repository.LikeRepo{DB: db}
	follows := &repository.FollowRepo{DB: db}
	hashtags := &repository.HashtagRepo{DB: db}
	notifications := &repository.NotificationRepo{DB: db}

	authSvc := auth.NewService(users, tokens, pending, nil, auth.Options{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		ResetTTLMin:    cfg.ResetTTLMin,
		PendingTTL:     time.Duration(cfg.PendingTTLMin) * time.Minute,
		BcryptCost:     cfg.BcryptCost,
		StrengthPolicy: cfg.StrengthPolicy,
	})

	// Interaction events flow through RabbitMQ; the consumer persists
	// them as notification rows.
	go func() {
		if err := queue.StartNotificationConsumer(notifications); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()
	notify := func(c echo.Context, ev queue.NotificationEvent) {
		if err := queue_publisher.PublishNotification(c.Request().Context(), ev); err != nil {
			log.Printf("publish notification: %v", err)
		}
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), cfg.JWTSecret, rdb)
	router.RegisterSocial(e, cfg.JWTSecret, rdb,
		handler.NewPostHandler(posts, comments, likes, hashtags, notify),
		handler.NewFollowHandler(follows, users, notify),
		handler.NewSearchHandler(posts, users, hashtags),
		handler.NewNotificationHandler(notifications),
		handler.NewProfileHandler(users, posts, follows),
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(users), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
