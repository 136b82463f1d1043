package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	"github.com/societyos/upkeep/internal/auth/session"
	"github.com/societyos/upkeep/internal/authorization"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/config"
	expensedomain "github.com/societyos/upkeep/internal/expense/domain"
	incomedomain "github.com/societyos/upkeep/internal/income/domain"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	"github.com/societyos/upkeep/internal/providers/pdf"
	"github.com/societyos/upkeep/internal/ratelimit"
	"github.com/societyos/upkeep/internal/storage"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", cfg.UploadDir)

	return r
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
	engine     *gin.Engine
	cfg        config.Config
	clock      clock.Clock
	authSvc    authdomain.Service
	sessions   *session.Manager
	authzSvc   authorization.Service
	orgSvc     orgdomain.Service
	unitSvc    unitdomain.Service
	billingSvc billingdomain.Service
	expenseSvc expensedomain.Service
	incomeSvc  incomedomain.Service
	storage    storage.Provider
	pdfSvc     pdf.Provider
	limiter    *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Clock      clock.Clock
	AuthSvc    authdomain.Service
	Sessions   *session.Manager
	AuthzSvc   authorization.Service
	OrgSvc     orgdomain.Service
	UnitSvc    unitdomain.Service
	BillingSvc billingdomain.Service
	ExpenseSvc expensedomain.Service
	IncomeSvc  incomedomain.Service
	Storage    storage.Provider
	PDFSvc     pdf.Provider
	Limiter    *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		clock:      p.Clock,
		authSvc:    p.AuthSvc,
		sessions:   p.Sessions,
		authzSvc:   p.AuthzSvc,
		orgSvc:     p.OrgSvc,
		unitSvc:    p.UnitSvc,
		billingSvc: p.BillingSvc,
		expenseSvc: p.ExpenseSvc,
		incomeSvc:  p.IncomeSvc,
		storage:    p.Storage,
		pdfSvc:     p.PDFSvc,
		limiter:    p.Limiter,
	}

	svc.registerAuthRoutes()
	svc.registerAdminRoutes()
	svc.registerResidentRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
	auth.POST("/forgot", s.Forgot)
	auth.POST("/reset", s.ResetPassword)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired(), s.RequireRole(authdomain.RoleOwner, authdomain.RoleAdmin))

	orgs := admin.Group("/organizations")
	{
		orgs.GET("", s.authorize(authorization.ObjectOrganization, authorization.ActionView), s.ListOrganizations)
		orgs.POST("", s.RequireRole(authdomain.RoleOwner), s.CreateOrganization)
		orgs.GET("/:id", s.authorize(authorization.ObjectOrganization, authorization.ActionView), s.GetOrganization)
		orgs.PUT("/:id", s.authorize(authorization.ObjectOrganization, authorization.ActionUpdate), s.UpdateOrganization)
		orgs.DELETE("/:id", s.RequireRole(authdomain.RoleOwner), s.DeleteOrganization)
		orgs.PUT("/:id/billing", s.authorize(authorization.ObjectOrganization, authorization.ActionOrganizationSettings), s.UpdateBillingSettings)
		orgs.POST("/:id/extras", s.authorize(authorization.ObjectOrganization, authorization.ActionOrganizationSettings), s.AddExtra)
		orgs.DELETE("/:id/extras/:extraId", s.authorize(authorization.ObjectOrganization, authorization.ActionOrganizationSettings), s.RemoveExtra)
	}

	units := admin.Group("/units")
	{
		units.GET("", s.authorize(authorization.ObjectUnit, authorization.ActionView), s.ListUnits)
		units.POST("", s.authorize(authorization.ObjectUnit, authorization.ActionCreate), s.CreateUnit)
		units.GET("/:id", s.authorize(authorization.ObjectUnit, authorization.ActionView), s.GetUnit)
		units.PUT("/:id", s.authorize(authorization.ObjectUnit, authorization.ActionUpdate), s.UpdateUnit)
		units.DELETE("/:id", s.authorize(authorization.ObjectUnit, authorization.ActionDelete), s.DeleteUnit)
		units.PUT("/:id/resident", s.authorize(authorization.ObjectUnit, authorization.ActionUpdate), s.AssignResident)
	}

	users := admin.Group("/users")
	{
		users.GET("", s.authorize(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
		users.POST("", s.authorize(authorization.ObjectUser, authorization.ActionUserOnboard), s.CreateUser)
	}

	bills := admin.Group("/maintenance-bills")
	{
		bills.GET("", s.authorize(authorization.ObjectBill, authorization.ActionView), s.ListBills)
		bills.POST("/generate", s.authorize(authorization.ObjectBill, authorization.ActionBillGenerate), s.GenerateBills)
		bills.GET("/:id", s.authorize(authorization.ObjectBill, authorization.ActionView), s.GetBill)
		bills.PUT("/:id", s.authorize(authorization.ObjectBill, authorization.ActionBillUpdateStatus), s.UpdateBillStatus)
		bills.GET("/:id/receipt", s.authorize(authorization.ObjectBill, authorization.ActionBillReceipt), s.BillReceipt)
		bills.GET("/dues", s.authorize(authorization.ObjectBill, authorization.ActionBillDues), s.UnitDues)
	}

	expenses := admin.Group("/expenses")
	{
		expenses.GET("", s.authorize(authorization.ObjectExpense, authorization.ActionView), s.ListExpenses)
		expenses.POST("", s.authorize(authorization.ObjectExpense, authorization.ActionCreate), s.CreateExpense)
		expenses.GET("/:id", s.authorize(authorization.ObjectExpense, authorization.ActionView), s.GetExpense)
		expenses.PUT("/:id", s.authorize(authorization.ObjectExpense, authorization.ActionUpdate), s.UpdateExpense)
		expenses.DELETE("/:id", s.authorize(authorization.ObjectExpense, authorization.ActionDelete), s.DeleteExpense)
	}

	incomes := admin.Group("/income")
	{
		incomes.GET("", s.authorize(authorization.ObjectIncome, authorization.ActionView), s.ListIncomes)
		incomes.POST("", s.authorize(authorization.ObjectIncome, authorization.ActionCreate), s.CreateIncome)
		incomes.GET("/:id", s.authorize(authorization.ObjectIncome, authorization.ActionView), s.GetIncome)
		incomes.PUT("/:id", s.authorize(authorization.ObjectIncome, authorization.ActionUpdate), s.UpdateIncome)
		incomes.DELETE("/:id", s.authorize(authorization.ObjectIncome, authorization.ActionDelete), s.DeleteIncome)
	}

	admin.POST("/upload", s.authorize(authorization.ObjectUpload, authorization.ActionCreate), s.Upload)
}

func (s *Server) registerResidentRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/profile", s.Profile)
	api.GET("/maintenance-bills", s.ListOwnBills)
	api.GET("/maintenance-bills/:id/receipt", s.OwnBillReceipt)
	api.GET("/dues", s.OwnDues)
}
