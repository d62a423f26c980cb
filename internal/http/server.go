package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Shootle/txtcoin/internal/config"
	"github.com/Shootle/txtcoin/internal/http/middleware"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/metrics"
	"github.com/Shootle/txtcoin/internal/qr"
	"github.com/Shootle/txtcoin/internal/repository"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Inbound InboundSink
	QR      *qr.Service
	Reports repository.CHCommandsRepository // nil disables /v1/reports
	Redis   *redis.Client
}

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.Use(echoMid.Recover(), requestLogger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// sms webhook
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          deps.Redis,
		Max:            cfg.RateLimit.PerSender,
		KeyPrefix:      "rl:sender:",
		Window:         cfg.RateLimit.Window,
		RetryAfterHint: true,
	})
	// Echo runs route middleware in order. Dedupe sits ahead of the limiter
	// so provider retries of an accepted SID never spend the sender's window.
	// A 429 is final: the provider does not retry it and the message is dropped.
	e.POST("/sms/inbound", inboundHandler(deps.Inbound),
		middleware.SignatureMiddleware(cfg.Inbound.AuthToken, cfg.HTTP.PublicBaseURL),
		middleware.InboundParser(),
		middleware.DedupeMiddleware(deps.Redis, cfg.Inbound.DedupTTL),
		rlMW,
	)

	e.GET("/qr/:address", qrHandler(deps.QR))

	// operator reports
	if deps.Reports != nil {
		v1 := e.Group("/v1", middleware.APIKeyMiddleware(cfg.Reports.APIKeys))
		v1.GET("/reports/commands", listCommandsHandler(deps.Reports))
	}

	return &Server{e: e}
}

func requestLogger() echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			logger.Log.Debug("http request",
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

func (s *Server) Start(addr string) error {
	logger.Log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}
