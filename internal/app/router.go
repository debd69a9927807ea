package app

import (
	"labelmarket_backend/docs"
	"labelmarket_backend/internal/config"
	"labelmarket_backend/internal/middleware"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.GET("/tasks/:taskId", c.task.GetTaskDetail)
		authGroup.GET("/tasks/:taskId/distributed", c.task.IsDistributed)

		// 发布方接口
		publisher := authGroup.Group("/publisher")
		publisher.Use(middleware.RoleMiddleware(model.Publisher))
		{
			publisher.POST("/tasks", c.task.CreateTask)
			publisher.GET("/tasks", c.task.ListMyTasks)
			publisher.POST("/tasks/:taskId/distribute", c.task.Distribute)
			publisher.POST("/tasks/:taskId/redistribute", c.task.Redistribute)
			publisher.GET("/tasks/:taskId/assignments", c.task.ListTaskAssignments)
			publisher.GET("/tasks/:taskId/check", c.review.ManualCheck)
			publisher.GET("/tasks/:taskId/answer-key", c.review.GetAnswerKey)
			publisher.POST("/tasks/:taskId/taggers/:taggerId/check", c.review.SetCheckPass)
			publisher.POST("/questions/upload", c.task.UploadQuestionAsset)
		}

		// 标注者接口
		tagger := authGroup.Group("/tagger")
		tagger.Use(middleware.RoleMiddleware(model.Tagger))
		{
			tagger.GET("/tasks/open", c.task.ListOpenTasks)
			tagger.GET("/assignments", c.assignment.ListMine)
			tagger.GET("/quota", c.assignment.GetQuota)
			tagger.POST("/tasks/:taskId/accept", c.assignment.Accept)
			tagger.POST("/tasks/:taskId/refuse", c.assignment.Refuse)
			tagger.GET("/tasks/:taskId/accepted", c.assignment.IsAccepted)
			tagger.GET("/tasks/:taskId/progress", c.submission.GetProgress)
			tagger.GET("/tasks/:taskId/questions/:seq", c.submission.GetQuestion)
			tagger.POST("/tasks/:taskId/questions/:seq/start", c.submission.StartQuestion)
			tagger.POST("/tasks/:taskId/questions/:seq/submit", c.submission.SubmitResult)
		}

		// 管理员接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.GET("/tasks/pending", c.review.ListPendingTasks)
			admin.GET("/taggers", c.review.ListTaggers)
			admin.POST("/tasks/:taskId/check", c.review.CheckTask)
			admin.POST("/taggers/:userId/ban", c.review.BanTagger)
			admin.POST("/taggers/:userId/unban", c.review.UnbanTagger)
			admin.GET("/taggers/stats", c.review.PoolStats)
		}
	}
}
