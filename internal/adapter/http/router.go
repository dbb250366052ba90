package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/adapter/middleware"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/approval"
	"fanders-backend/internal/usecase/audit"
	"fanders-backend/internal/usecase/auth"
	"fanders-backend/internal/usecase/blotter"
	"fanders-backend/internal/usecase/client"
	"fanders-backend/internal/usecase/collection"
	"fanders-backend/internal/usecase/loan"
	"fanders-backend/internal/usecase/payment"
	"fanders-backend/internal/usecase/report"
	"fanders-backend/internal/usecase/slr"
)

// Deps is everything Register needs. Redis may be nil, which disables idempotency.
type Deps struct {
	Auth        *auth.Usecase
	Clients     *client.Usecase
	Loans       *loan.Usecase
	Approvals   *approval.Usecase
	Payments    *payment.Usecase
	Collections *collection.Usecase
	Blotter     *blotter.Usecase
	SLR         *slr.Usecase
	Reports     *report.Usecase
	Audit       *audit.Recorder

	Checks         map[string]Check
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	Log            *logrus.Logger
}

// Register mounts the public routes and the authenticated /api tree on e.
func Register(e *echo.Echo, d Deps) {
	e.Validator = NewValidator()

	authH := NewAuthHandler(d.Auth, d.Log)
	e.GET("/health", NewHandler(d.Checks).Health)
	e.POST("/auth/login", authH.Login)

	api := e.Group("/api", middleware.JWTAuth(d.Auth))
	if d.Redis != nil {
		api.Use(middleware.Idempotency(d.Redis, d.IdempotencyTTL, d.Log))
	}
	api.GET("/auth/me", authH.Me)
	api.PUT("/users/:id/password", authH.ChangePassword)

	staff := middleware.RequireRoles(user.Staff()...)
	managers := middleware.RequireRoles(user.Managers()...)
	admins := middleware.RequireRoles(user.StaffAdmins()...)

	api.POST("/users", authH.CreateUser, admins)
	api.GET("/users", authH.ListUsers, admins)
	api.PUT("/users/:id/status", authH.SetStatus, admins)

	cl := NewClientHandler(d.Clients, d.Log)
	api.GET("/clients", cl.List, staff)
	api.GET("/clients/options", cl.Options, staff)
	api.GET("/clients/stats", cl.Stats, staff)
	api.POST("/clients", cl.Create, staff)
	api.GET("/clients/:client_id", cl.Get, staff)
	api.PUT("/clients/:client_id", cl.Update, staff)
	api.PUT("/clients/:client_id/status", cl.ChangeStatus, staff)
	api.DELETE("/clients/:client_id", cl.Delete, staff)

	ln := NewLoanHandler(d.Loans, d.Log)
	api.POST("/loans/calculate", ln.Calculate, staff)
	api.POST("/loans", ln.Apply, staff)
	api.GET("/loans", ln.List, staff)
	api.GET("/loans/stats", ln.Stats, staff)
	api.GET("/loans/:loan_id", ln.Get, staff)
	api.GET("/loans/:loan_id/schedule", ln.Schedule, staff)
	api.POST("/loans/:loan_id/disburse", ln.Disburse, staff)
	api.POST("/loans/:loan_id/default", ln.MarkDefaulted, staff)
	api.POST("/loans/:loan_id/complete", ln.Complete, staff)

	ap := NewApprovalHandler(d.Approvals, d.Log)
	api.POST("/loans/:loan_id/approve", ap.Approve, managers)
	api.POST("/loans/:loan_id/reject", ap.Reject, managers)
	api.GET("/loans/:loan_id/approval", ap.Get, managers)

	pm := NewPaymentHandler(d.Payments, d.Log)
	api.POST("/loans/:loan_id/payments", pm.Record, staff)
	api.GET("/loans/:loan_id/payments", pm.ListByLoan, staff)
	api.GET("/loans/:loan_id/payments/summary", pm.Summary, staff)
	api.GET("/payments", pm.ListByRange, staff)

	co := NewCollectionHandler(d.Collections, d.Log)
	api.POST("/collection-sheets", co.Create, staff)
	api.GET("/collection-sheets", co.List, staff)
	api.GET("/collection-sheets/:id", co.Get, staff)
	api.POST("/collection-sheets/:id/loans", co.AddLoans, staff)
	api.POST("/collection-sheets/:id/items/:item_id/collect", co.RecordCollection, staff)
	api.POST("/collection-sheets/:id/submit", co.Submit, staff)
	api.POST("/collection-sheets/:id/approve", co.Approve, managers)

	bl := NewBlotterHandler(d.Blotter, d.Log)
	api.GET("/cash-blotter", bl.Range, managers)
	api.GET("/cash-blotter/balance", bl.Balance, managers)
	api.GET("/cash-blotter/summary", bl.Summary, managers)
	api.GET("/cash-blotter/alerts", bl.Alerts, managers)
	api.GET("/cash-blotter/:date", bl.ForDate, managers)
	api.POST("/cash-blotter/:date/recalculate", bl.Recalculate, managers)

	sl := NewSLRHandler(d.SLR, d.Log)
	api.POST("/loans/:loan_id/slr", sl.Generate, staff)
	api.GET("/slr", sl.List, staff)
	api.GET("/slr/access-log", sl.AccessLog, staff)
	api.GET("/slr/rules", sl.Rules, staff)
	api.PUT("/slr/rules/:trigger", sl.UpdateRule, admins)
	api.GET("/slr/:id", sl.Get, staff)
	api.GET("/slr/:id/download", sl.Download, staff)
	api.POST("/slr/:id/archive", sl.Archive, staff)
	api.POST("/slr/:id/restore", sl.Restore, staff)
	api.POST("/slr/:id/void", sl.Void, staff)

	rp := NewReportHandler(d.Reports, d.Log)
	api.GET("/reports/dashboard", rp.Dashboard, managers)
	api.GET("/reports/overdue", rp.Overdue, managers)
	api.GET("/reports/export/:kind", rp.Export, managers)

	api.GET("/audit", NewAuditHandler(d.Audit, d.Log).List, managers)
}
