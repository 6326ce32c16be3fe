package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calc-backend/internal/calculator"
	"calc-backend/internal/images"
	"calc-backend/internal/services/health"
	"calc-backend/internal/shared/config"
	"calc-backend/internal/shared/metrics"
	"calc-backend/internal/shared/server/middleware"
	"calc-backend/internal/shared/server/respond"
)

// RouterDeps carries handlers built by bootstrap.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	ImageHandler      *images.Handler
	CalculatorHandler *calculator.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.BodyLimit(deps.Config.MaxBodyBytes),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/getstatus", func(c *gin.Context) {
		respond.Text(c, http.StatusOK, healthSvc.Status())
	})
	r.GET("/metrics", metrics.Handler())

	if deps.ImageHandler != nil {
		deps.ImageHandler.RegisterRoutes(r)
	}
	if deps.CalculatorHandler != nil {
		deps.CalculatorHandler.RegisterRoutes(r)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
