package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/jobboard/internal/auth"
	"github.com/smallbiznis/jobboard/internal/config"
	jobpostingdomain "github.com/smallbiznis/jobboard/internal/jobposting/domain"
	"github.com/smallbiznis/jobboard/internal/observability"
	obsmiddleware "github.com/smallbiznis/jobboard/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/jobboard/internal/observability/metrics"
	obstracing "github.com/smallbiznis/jobboard/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/jobboard/internal/payment/domain"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// RunHTTP serves the engine for the lifetime of the application.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	verifier   *auth.Verifier
	productSvc productdomain.Service
	pricingSvc pricingdomain.Service
	jobSvc     jobpostingdomain.Service
	paymentSvc paymentdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Verifier   *auth.Verifier
	ProductSvc productdomain.Service
	PricingSvc pricingdomain.Service
	JobSvc     jobpostingdomain.Service
	PaymentSvc paymentdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		verifier:   p.Verifier,
		productSvc: p.ProductSvc,
		pricingSvc: p.PricingSvc,
		jobSvc:     p.JobSvc,
		paymentSvc: p.PaymentSvc,
	}
	svc.registerAPIRoutes()
	svc.registerFallback()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Pricing --------
	api.GET("/pricing", s.GetPricingCatalog)
	api.POST("/pricing/quote", s.QuotePricing)

	// -------- Jobs --------
	api.GET("/jobs", s.ListJobs)
	api.GET("/jobs/:id", s.GetJobByID)

	business := api.Group("", auth.Authenticate(s.verifier), auth.RequireBusiness())
	business.POST("/jobs", s.CreateJob)
	business.PUT("/jobs/:id", s.UpdateJob)
	business.DELETE("/jobs/:id", s.DeleteJob)
	business.GET("/business/jobs", s.ListBusinessJobs)

	// -------- Payments --------
	business.POST("/payments/paypal/orders", s.CreatePayPalOrder)
	business.POST("/payments/paypal/orders/:id/capture", s.CapturePayPalOrder)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
