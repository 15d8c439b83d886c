package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"parley/config"
	data "parley/data/mongo"
	"parley/logger"
	"parley/middleware"
	chathandler "parley/module/chat"
	chatservice "parley/module/chat/service"
	userhandler "parley/module/user"
	userservice "parley/module/user/service"
	rt "parley/service/chat"
	"parley/tools/security"
	"parley/tools/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("load config: %v", err)
		return
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := data.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Errorf("connect mongo: %v", err)
		return
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warnf("disconnect mongo: %v", err)
		}
	}()
	logger.Info("connected to database")

	uploads, err := upload.New(cfg.UploadDir)
	if err != nil {
		logger.Errorf("init upload dir: %v", err)
		return
	}

	jwtOpts := security.Options{Secret: []byte(cfg.JWTSecret), Alg: "HS256", TTL: cfg.JWTTTL}
	users := userservice.NewRepo(db)
	messages := chatservice.NewRepo(db)

	// Realtime core: one registry instance owned here, injected into the
	// router and the gateway.
	registry := rt.NewRegistry()
	router := rt.NewRouter(registry, messages)
	gateway := rt.NewGateway(registry, router)

	auth := middleware.Auth(middleware.DefaultAuthOptions(jwtOpts))

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Static("/public", cfg.UploadDir)
	engine.GET("/ws", gateway.HandleWS)

	userhandler.NewHandler(users, uploads, jwtOpts).Register(engine.Group("/api/v1/auth"), auth)
	chathandler.NewHandler(messages, users, router, uploads).Register(engine.Group("/api/v1/message"), auth)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: engine}

	go func() {
		logger.Infof("server running http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("listen: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
