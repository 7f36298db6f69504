package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/config"
	"github.com/SrgyS/yns-app-sub001/internal/api/handler"
	"github.com/SrgyS/yns-app-sub001/internal/api/middleware"
	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/pkg/jwt"
	"github.com/SrgyS/yns-app-sub001/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			logger.Fatal("注册校验器失败", zap.Error(err))
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 课程可见周
		v1.GET("/courses/:id/weeks", h.Schedule.GetAvailableWeeks)

		// 报名 / 每日计划
		enrollments := v1.Group("/enrollments")
		{
			enrollments.POST("", middleware.RoleAuth(jwt.RoleAdmin), h.Enrollment.CreateEnrollment)
			enrollments.POST("/:id/close", middleware.RoleAuth(jwt.RoleAdmin), h.Enrollment.CloseAccess)

			enrollments.GET("/:id/program-week", h.Schedule.GetProgramWeek)
			enrollments.GET("/:id/days/:day", h.Schedule.GetDailyPlan)
			enrollments.PUT("/:id/workout-days", middleware.RateLimit(rdb, 10, time.Minute), h.Schedule.UpdateWorkoutDays)
			enrollments.GET("/:id/calendar.ics", h.Schedule.ExportCalendar)

			enrollments.GET("/:id/completions", h.Completion.ListCompletions)
			enrollments.POST("/:id/completions", h.Completion.MarkCompletion)
			enrollments.DELETE("/:id/completions", h.Completion.UnmarkCompletion)
		}

		// 管理端：新周发布 / 批量更新记录
		admin := v1.Group("/admin", middleware.RoleAuth(jwt.RoleAdmin))
		{
			admin.POST("/courses/:id/weeks", h.Week.PublishWeek)
			admin.POST("/courses/:id/weeks/:week/plan-update", h.Week.RunPlanUpdate)

			admin.GET("/plan-update-runs", h.Export.ListRuns)
			admin.GET("/plan-update-runs/:id", h.Export.GetRun)
			admin.GET("/plan-update-runs/:id/export", h.Export.ExportRun)
		}
	}

	return r
}
