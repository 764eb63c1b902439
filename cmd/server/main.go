package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "linenloft/internal/domain/admin"
	_ "linenloft/internal/domain/order"
	_ "linenloft/internal/domain/user"
	"linenloft/internal/pkg/config"
	"linenloft/internal/pkg/middleware"
	"linenloft/internal/pkg/push"
	"linenloft/internal/pkg/registry"
	"linenloft/internal/pkg/uploader"
	"linenloft/internal/pkg/worker"
	"linenloft/pkg/cache"
	"linenloft/pkg/database"
	"linenloft/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	logger.InitLogger(config.GlobalConfig.App.Env)
	defer logger.Sync()

	// 2. 基础设施
	db := database.InitDatabase()
	rdb := database.InitRedis()

	// 进程内唯一的异步任务池，所有模块共享，停机时统一排空
	pool := worker.NewWorkerPool(cache.NewRedisCache(rdb), 5, 1000)
	pool.Start()

	// OSS 与推送为可选依赖，未配置只记录日志
	if err := uploader.InitUploader(); err != nil {
		log.Printf("Uploader not configured: %v", err)
	}
	if err := push.InitPushService(); err != nil {
		log.Printf("Push service not configured: %v", err)
	}

	// 3. HTTP 引擎与全局中间件
	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 按优先级初始化业务模块
	moduleCtx := &registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Router: r,
		Pool:   pool,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		log.Fatalf("Failed to init modules: %v", err)
	}

	// 5. 启动与优雅停机
	srv := &http.Server{
		Addr:    ":" + config.GlobalConfig.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on :%s", config.GlobalConfig.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	pool.Stop()
	log.Println("Server exited")
}
