package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payrail/internal/audit"
	"github.com/smallbiznis/payrail/internal/config"
	"github.com/smallbiznis/payrail/internal/disbursement"
	disbursementdomain "github.com/smallbiznis/payrail/internal/disbursement/domain"
	"github.com/smallbiznis/payrail/internal/obligation"
	obligationdomain "github.com/smallbiznis/payrail/internal/obligation/domain"
	"github.com/smallbiznis/payrail/internal/payout"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	"github.com/smallbiznis/payrail/internal/policy"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	audit.Module,
	policy.Module,
	obligation.Module,
	payout.Module,
	disbursement.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type ServerParams struct {
	fx.In

	Log             *zap.Logger
	ObligationSvc   obligationdomain.Service
	PayoutSvc       payoutdomain.Service
	DisbursementSvc disbursementdomain.Service
}

type Server struct {
	log             *zap.Logger
	obligationSvc   obligationdomain.Service
	payoutSvc       payoutdomain.Service
	disbursementSvc disbursementdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		log:             p.Log.Named("server"),
		obligationSvc:   p.ObligationSvc,
		payoutSvc:       p.PayoutSvc,
		disbursementSvc: p.DisbursementSvc,
	}
}

func RegisterRoutes(r *gin.Engine, s *Server) {
	v1 := r.Group("/v1")
	v1.POST("/obligations", s.ComputeObligations)
	v1.POST("/payout-items/:id/refund", s.MirrorRefund)
	v1.POST("/payout-runs", s.CreatePayoutRun)
	v1.POST("/payouts/sign", s.SignPayouts)
	v1.POST("/disbursements/dispatch", s.DispatchDisbursement)
	v1.POST("/disbursements/finalize", s.FinalizeDisbursement)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
