package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"fanders-backend/internal/adapter/middleware"
	"fanders-backend/internal/adapter/repository/gormrepo"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/testutil/testdb"
	ucLoan "fanders-backend/internal/usecase/loan"
)

var officer = user.Actor{ID: 2, Username: "ao", Role: user.RoleAccountOfficer}

func loanHandler(t *testing.T) (*LoanHandler, *gorm.DB) {
	t.Helper()
	db := testdb.Open(t)
	uc := ucLoan.NewUsecase(ucLoan.Deps{
		Loans:    gormrepo.NewLoanRepository(db),
		Clients:  gormrepo.NewClientRepository(db),
		Payments: gormrepo.NewPaymentRepository(db),
		UoW:      gormrepo.NewGormUoW(db),
		Log:      quietLog(),
	})
	return NewLoanHandler(uc, quietLog()), db
}

func jsonRequest(method, path string, body any, a user.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := newEchoWithValidator()
	req := httptest.NewRequest(method, path, mustJSON(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetActor(c, a)
	return c, rec
}

func TestCalculate_Success(t *testing.T) {
	h, _ := loanHandler(t)
	c, rec := jsonRequest(http.MethodPost, "/api/loans/calculate", map[string]any{"principal": "10000", "term_weeks": 17}, officer)

	if err := h.Calculate(c); err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var res calculator.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if res.TotalLoanAmount.StringFixed(2) != "12525.00" || res.WeeklyPaymentBase.StringFixed(2) != "736.76" {
		t.Fatalf("unexpected totals: total=%s weekly=%s", res.TotalLoanAmount, res.WeeklyPaymentBase)
	}
	if len(res.PaymentSchedule) != 17 {
		t.Fatalf("schedule has %d rows", len(res.PaymentSchedule))
	}
}

func TestCalculate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		field string
		msg   string
	}{
		{"zero principal", map[string]any{"principal": "0", "term_weeks": 17}, "principal", "greater than 0"},
		{"missing term", map[string]any{"principal": "10000"}, "term_weeks", "greater than 0"},
		{"below minimum", map[string]any{"principal": "1000", "term_weeks": 17}, "principal", "at least 5000.00"},
		{"term too long", map[string]any{"principal": "10000", "term_weeks": 60}, "term_weeks", "between 4 and 52"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := loanHandler(t)
			c, rec := jsonRequest(http.MethodPost, "/api/loans/calculate", tt.body, officer)
			if err := h.Calculate(c); err != nil {
				t.Fatalf("Calculate error: %v", err)
			}
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422; body=%s", rec.Code, rec.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("bad json: %v", err)
			}
			if !containsFieldMsg(resp.Details, tt.field, tt.msg) {
				t.Fatalf("expected %s %q in %+v", tt.field, tt.msg, resp.Details)
			}
		})
	}
}

func TestCalculate_BindError(t *testing.T) {
	h, _ := loanHandler(t)
	e := newEchoWithValidator()
	req := httptest.NewRequest(http.MethodPost, "/api/loans/calculate", strings.NewReader(`{"principal":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Calculate(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestApply(t *testing.T) {
	h, db := loanHandler(t)
	cl := testdb.Client(t, db, "09170000001")
	body := map[string]any{"client_id": cl.ClientID, "principal": "10000", "term_weeks": 17}

	c, rec := jsonRequest(http.MethodPost, "/api/loans", body, officer)
	if err := h.Apply(c); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var dto struct {
		LoanID     string `json:"loan_id"`
		Status     string `json:"status"`
		ClientID   string `json:"client_id"`
		ClientName string `json:"client_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(dto.LoanID) != 32 || dto.Status != "application" || dto.ClientID != cl.ClientID || dto.ClientName != cl.Name {
		t.Fatalf("unexpected dto: %+v", dto)
	}

	// a second application while the first is open
	c, rec = jsonRequest(http.MethodPost, "/api/loans", body, officer)
	if err := h.Apply(c); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body=%s", rec.Code, rec.Body.String())
	}

	// cashiers cannot book loans
	c, rec = jsonRequest(http.MethodPost, "/api/loans", body, user.Actor{ID: 4, Role: user.RoleCashier})
	if err := h.Apply(c); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestApply_UnknownClient(t *testing.T) {
	h, _ := loanHandler(t)
	body := map[string]any{"client_id": strings.Repeat("a", 32), "principal": "10000", "term_weeks": 17}
	c, rec := jsonRequest(http.MethodPost, "/api/loans", body, officer)
	if err := h.Apply(c); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetAndSchedule(t *testing.T) {
	h, db := loanHandler(t)
	cl := testdb.Client(t, db, "09170000002")
	l := testdb.ActiveLoan(t, db, cl.ID, "10000", testdb.Day(2025, 1, 6))

	e := newEchoWithValidator()
	for _, tt := range []struct {
		loanID string
		call   func(echo.Context) error
		want   int
		has    string
	}{
		{l.LoanID, h.Get, http.StatusOK, `"status":"active"`},
		{strings.Repeat("0", 32), h.Get, http.StatusNotFound, "loan not found"},
		{l.LoanID, h.Schedule, http.StatusOK, `"due_date":"2025-01-13`},
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("loan_id")
		c.SetParamValues(tt.loanID)
		if err := tt.call(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != tt.want || !strings.Contains(rec.Body.String(), tt.has) {
			t.Fatalf("got %d %s; want %d containing %q", rec.Code, rec.Body.String(), tt.want, tt.has)
		}
	}
}
