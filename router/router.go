package router

import (
	"net/http"
	"time"

	"wallet/api"
	"wallet/config"
	"wallet/middleware"
	"wallet/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, publisher service.EventPublisher) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录），登录与找回密码限流
		authHandler := api.NewAuthHandler(cfg)
		limiter := middleware.AuthRateLimit(cfg.RateLimit)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", limiter, authHandler.Login)
			auth.POST("/forgotPassword", limiter, authHandler.ForgotPassword)
			auth.POST("/resetPassword", authHandler.ResetPassword)
		}

		// 类别（读取无需登录）
		categoryHandler := api.NewCategoryHandler()
		subCategoryHandler := api.NewSubCategoryHandler()
		v1.GET("/categories", categoryHandler.List)
		v1.GET("/categories/:id", categoryHandler.Get)
		v1.GET("/subcategories", subCategoryHandler.List)
		v1.GET("/subcategories/:id", subCategoryHandler.Get)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/profile", authHandler.UpdateProfile)

			authorized.POST("/categories", categoryHandler.Create)
			authorized.PUT("/categories/:id", categoryHandler.Update)
			authorized.DELETE("/categories/:id", categoryHandler.Delete)
			authorized.POST("/subcategories", subCategoryHandler.Create)
			authorized.PUT("/subcategories/:id", subCategoryHandler.Update)
			authorized.DELETE("/subcategories/:id", subCategoryHandler.Delete)

			accountHandler := api.NewAccountHandler()
			accounts := authorized.Group("/accounts")
			{
				accounts.POST("", accountHandler.Create)
				accounts.GET("", accountHandler.List)
				accounts.GET("/:id", accountHandler.Get)
				accounts.PUT("/:id", accountHandler.Update)
				accounts.DELETE("/:id", accountHandler.Delete)
				accounts.GET("/:id/reconcile", accountHandler.Reconcile)
			}

			// 交易、报表与导出
			txnHandler := api.NewTransactionHandler(cfg, publisher)
			reportHandler := api.NewReportHandler()
			exportHandler := api.NewExportHandler()
			txns := authorized.Group("/transactions")
			{
				txns.GET("/report", reportHandler.Summary)
				txns.GET("/export/csv", exportHandler.ExportCSV)
				txns.GET("/export/excel", exportHandler.ExportExcel)
				txns.GET("/category/:categoryId/report", reportHandler.ByCategory)
				txns.POST("", txnHandler.Create)
				txns.GET("", txnHandler.List)
				txns.GET("/:id", txnHandler.Get)
				txns.PUT("/:id", txnHandler.Update)
				txns.DELETE("/:id", txnHandler.Delete)
				// :id 为账户 ID
				txns.GET("/:id/report", reportHandler.ByAccount)
			}

			budgetHandler := api.NewBudgetHandler(cfg)
			budgets := authorized.Group("/budgets")
			{
				budgets.GET("/alerts", budgetHandler.Alerts)
				budgets.POST("", budgetHandler.Create)
				budgets.GET("", budgetHandler.List)
				budgets.GET("/:id", budgetHandler.Get)
				budgets.PUT("/:id", budgetHandler.Update)
				budgets.DELETE("/:id", budgetHandler.Delete)
				budgets.GET("/:id/status", budgetHandler.Status)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return r
}

// corsConfig 未配置或配置了 * 时允许所有来源（此时不能携带凭证）
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
