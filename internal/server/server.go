package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/facture/internal/auth"
	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
	"github.com/smallbiznis/facture/internal/auth/session"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/smallbiznis/facture/internal/identity"
	"github.com/smallbiznis/facture/internal/migration"
	"github.com/smallbiznis/facture/internal/observability"
	obsmiddleware "github.com/smallbiznis/facture/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/facture/internal/observability/metrics"
	obstracing "github.com/smallbiznis/facture/internal/observability/tracing"
	"github.com/smallbiznis/facture/internal/organization"
	organizationdomain "github.com/smallbiznis/facture/internal/organization/domain"
	"github.com/smallbiznis/facture/internal/ratelimit"
	"github.com/smallbiznis/facture/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/facture/internal/subscription/domain"
	"github.com/smallbiznis/facture/internal/subuser"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	fx.Provide(registerGin),
	identity.Module,
	organization.Module,
	subuser.Module,
	subscription.Module,
	auth.Module,
	ratelimit.Module,
	migration.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine          *gin.Engine
	cfg             config.Config
	establisher     authdomain.Establisher
	sessions        *session.Manager
	registry        *session.Registry
	organizationSvc organizationdomain.Service
	subUserSvc      subuserdomain.Service
	subscriptionSvc subscriptiondomain.Service
	loginLimiter    *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Establisher     authdomain.Establisher
	Sessions        *session.Manager
	Registry        *session.Registry
	OrganizationSvc organizationdomain.Service
	SubUserSvc      subuserdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	LoginLimiter    *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		establisher:     p.Establisher,
		sessions:        p.Sessions,
		registry:        p.Registry,
		organizationSvc: p.OrganizationSvc,
		subUserSvc:      p.SubUserSvc,
		subscriptionSvc: p.SubscriptionSvc,
		loginLimiter:    p.LoginLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/register", s.Register)
	auth.POST("/logout", s.AuthRequired(), s.Logout)
	auth.GET("/session", s.AuthRequired(), s.CurrentSession)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	org := api.Group("/organization")
	org.GET("", s.GetOrganization)
	org.PATCH("/settings", s.RequirePermission("settings"), s.UpdateOrganizationSettings)
	org.POST("/documents/next-number", s.RequirePermission("invoices"), s.NextDocumentNumber)

	sub := api.Group("/subscription", s.RequireAdmin())
	sub.POST("/upgrade", s.UpgradeSubscription)
	sub.GET("/alert", s.SubscriptionAlert)

	users := api.Group("/sub-users", s.RequireAdmin())
	users.GET("", s.ListSubUsers)
	users.POST("", s.CreateSubUser)
	users.GET("/:id", s.GetSubUser)
	users.PUT("/:id", s.UpdateSubUser)
	users.PATCH("/:id/status", s.SetSubUserStatus)
	users.POST("/:id/permissions/select-all", s.SelectAllSubUserPermissions)
	users.POST("/:id/permissions/reset", s.ResetSubUserPermissions)
}
