// Package server wires repositories, services and handlers into the gin engine.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/constants"
	"github.com/yukikurage/agency-ops-api/internal/handlers"
	"github.com/yukikurage/agency-ops-api/internal/logging"
	"github.com/yukikurage/agency-ops-api/internal/middleware"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	DB     *gorm.DB
	Logger *zap.Logger
	// Suggester is nil when no OpenAI key is configured
	Suggester           services.TaskSuggester
	DashboardPeriodDays int
}

func NewRouter(opts Options) *gin.Engine {
	log := logging.OrNop(opts.Logger)
	if opts.DashboardPeriodDays <= 0 {
		opts.DashboardPeriodDays = constants.DefaultDashboardPeriodDays
	}

	clientRepo := repository.NewClientRepository(opts.DB)
	taskRepo := repository.NewTaskRepository(opts.DB)
	financeRepo := repository.NewFinanceRepository(opts.DB)
	memberRepo := repository.NewTeamMemberRepository(opts.DB)
	workRepo := repository.NewWorkRepository(opts.DB)
	dashRepo := repository.NewDashboardRepository(opts.DB)

	clientHandler := handlers.NewClientHandler(services.NewClientService(clientRepo, log))
	taskHandler := handlers.NewTaskHandler(services.NewTaskService(taskRepo, clientRepo, opts.Suggester, log))
	financeHandler := handlers.NewFinanceHandler(services.NewFinanceService(financeRepo, clientRepo))
	teamHandler := handlers.NewTeamHandler(services.NewTeamService(memberRepo))
	workHandler := handlers.NewWorkHandler(services.NewWorkService(workRepo, clientRepo, memberRepo, log))
	dashboardHandler := handlers.NewDashboardHandler(
		services.NewDashboardService(dashRepo, taskRepo, financeRepo, opts.DashboardPeriodDays, log),
	)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Agency Operations API is running",
		})
	})

	api := r.Group("/api")
	{
		clients := api.Group("/clients")
		{
			clients.GET("", clientHandler.ListClients)
			clients.POST("", clientHandler.CreateClient)
			clients.GET("/:id", clientHandler.GetClient)
			clients.PUT("/:id", clientHandler.ReplaceClient)
			clients.PATCH("/:id", clientHandler.PatchClient)
			clients.DELETE("/:id", clientHandler.DeleteClient)
			clients.POST("/:id/repair", clientHandler.RepairClient)
			clients.POST("/:id/task-suggestions", taskHandler.SuggestTasks)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/start", taskHandler.StartTask)
			tasks.POST("/:id/complete", taskHandler.CompleteTask)
			tasks.POST("/:id/cancel", taskHandler.CancelTask)
		}

		finances := api.Group("/finances")
		{
			finances.GET("", financeHandler.ListFinances)
			finances.POST("", financeHandler.CreateFinance)
			finances.GET("/summary", financeHandler.Summary)
			finances.GET("/:id", financeHandler.GetFinance)
			finances.PUT("/:id", financeHandler.UpdateFinance)
			finances.DELETE("/:id", financeHandler.DeleteFinance)
		}

		team := api.Group("/team-members")
		{
			team.GET("", teamHandler.ListMembers)
			team.POST("", teamHandler.CreateMember)
			team.GET("/:id", teamHandler.GetMember)
			team.PUT("/:id", teamHandler.UpdateMember)
			team.DELETE("/:id", teamHandler.DeleteMember)
		}

		works := api.Group("/works")
		{
			works.GET("", workHandler.ListWorks)
			works.POST("", workHandler.CreateWork)
			works.GET("/:id", workHandler.GetWork)
			works.PUT("/:id", workHandler.UpdateWork)
			works.DELETE("/:id", workHandler.DeleteWork)
			works.GET("/:id/budget", workHandler.Budget)
			works.POST("/:id/budget/reconcile", workHandler.ReconcileBudget)

			children := works.Group("/:id", middleware.RequireWork(workRepo))
			{
				children.GET("/resources", workHandler.ListResources)
				children.POST("/resources", workHandler.CreateResource)
				children.PUT("/resources/:child_id", workHandler.UpdateResource)
				children.DELETE("/resources/:child_id", workHandler.DeleteResource)

				children.GET("/expenses", workHandler.ListExpenses)
				children.POST("/expenses", workHandler.CreateExpense)
				children.PUT("/expenses/:child_id", workHandler.UpdateExpense)
				children.DELETE("/expenses/:child_id", workHandler.DeleteExpense)

				children.GET("/documents", workHandler.ListDocuments)
				children.POST("/documents", workHandler.CreateDocument)
				children.PUT("/documents/:child_id", workHandler.UpdateDocument)
				children.DELETE("/documents/:child_id", workHandler.DeleteDocument)
			}
		}

		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("", dashboardHandler.GetDashboard)
			dashboard.POST("/snapshots", dashboardHandler.CaptureSnapshot)
		}
	}

	return r
}
