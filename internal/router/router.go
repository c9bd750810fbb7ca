package router

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/internal/api"
	"github.com/pageza/fusion-kitchen/backend/internal/logger"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// Options carries what SetupRouter needs besides the services
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	// Health pings the database; nil reports healthy unconditionally
	Health api.Pinger
}

// RegisterBindingValidators installs the catalogue rules on gin's validator
// and makes errors report json field names.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return types.RegisterValidators(v)
}

// SetupRouter configures the application routes
func SetupRouter(svc api.Services, opts Options) (*gin.Engine, error) {
	if err := RegisterBindingValidators(); err != nil {
		return nil, err
	}

	log := logger.OrNop(opts.Logger)
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Metrics(m),
	)
	if len(opts.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(opts.AllowedOrigins))
	}
	router.NoRoute(middleware.NoRoute)

	health := api.HealthCheck(opts.Health)
	router.GET("/health", health)
	router.GET("/api/health", health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api.RegisterRoutes(router, svc)

	return router, nil
}
