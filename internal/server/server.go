package server

import (
	"net/http"

	"equipviz/internal/handler"
	"equipviz/internal/middleware"
	"equipviz/internal/repository"
	"equipviz/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	log    *zap.Logger
}

func NewServer(db *sqlx.DB, log *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		log:    log,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	authRepo := repository.NewAuthRepository(s.db, s.log)
	authService := service.NewAuthService(authRepo, s.log)
	authHandler := handler.NewAuthHandler(authService, s.log)

	datasetRepo := repository.NewDatasetRepository(s.db, s.log)
	datasetService := service.NewDatasetService(datasetRepo, s.log)
	datasetHandler := handler.NewDatasetHandler(datasetService, s.log)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Public dataset routes. Upload attributes the uploader when a valid
	// token is present but never requires one.
	api := s.router.Group("/api")
	api.POST("/upload", middleware.OptionalAuthMiddleware(s.log), datasetHandler.Upload)
	api.GET("/history", datasetHandler.History)
	api.GET("/datasets/latest", datasetHandler.Latest)
	api.GET("/datasets/:id", datasetHandler.Get)
	api.GET("/datasets/:id/summary", datasetHandler.Summary)
	api.GET("/datasets/:id/pdf", datasetHandler.DownloadPDF)
	api.GET("/datasets/:id/xlsx", datasetHandler.DownloadXLSX)
	api.GET("/datasets/:id/chart", datasetHandler.DistributionChart)
	api.DELETE("/datasets/:id", datasetHandler.Delete)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(s.log))
	{
		authRequired.POST("/auth/logout", authHandler.Logout)
		authRequired.GET("/auth/profile", authHandler.Profile)
	}
}

func (s *Server) Run(addr string) {
	s.log.Info("Server starting", zap.String("addr", addr))
	if err := s.router.Run(addr); err != nil {
		s.log.Fatal("Server failed to start", zap.Error(err))
	}
}
