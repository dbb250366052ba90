// Package pdf renders the Statement of Loan Receipt.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	companyName    = "FANDERS MICROFINANCE INC."
	companyAddress = "Centro East, Santiago City, Isabela"
)

// SLR is everything printed on a receipt.
type SLR struct {
	DocumentNumber    string
	IssuedAt          time.Time
	ClientName        string
	ClientRef         uint64
	Address           string
	Phone             string
	LoanRef           uint64
	ApplicationDate   time.Time
	ReceiptDate       time.Time
	TermLabel         string
	TermWeeks         int
	Principal         decimal.Decimal
	TotalAmount       decimal.Decimal
	WeeklyPayment     decimal.Decimal
	MaturityDate      time.Time
	SignatureRequired bool
}

// RenderSLR returns the PDF bytes of s.
func RenderSLR(s SLR) ([]byte, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle("Statement of Loan Receipt - "+s.DocumentNumber, false)
	p.SetAuthor("Fanders Microfinance Inc.", false)
	p.SetCreationDate(s.IssuedAt)
	p.AddPage()

	p.SetFont("Helvetica", "B", 16)
	p.CellFormat(0, 8, companyName, "", 1, "C", false, 0, "")
	p.SetFont("Helvetica", "", 10)
	p.CellFormat(0, 6, companyAddress, "", 1, "C", false, 0, "")
	p.Ln(4)
	p.SetFont("Helvetica", "B", 13)
	p.CellFormat(0, 8, "STATEMENT OF LOAN RECEIPT (SLR)", "", 1, "C", false, 0, "")
	p.Ln(4)

	section := func(title string, lines ...string) {
		p.SetFont("Helvetica", "B", 11)
		p.CellFormat(0, 7, title, "B", 1, "L", false, 0, "")
		p.SetFont("Helvetica", "", 10)
		for _, l := range lines {
			p.CellFormat(0, 6, l, "", 1, "L", false, 0, "")
		}
		p.Ln(3)
	}

	section("DOCUMENT",
		"SLR Number: "+s.DocumentNumber,
		"Date Issued: "+longDate(s.IssuedAt),
	)
	section("BORROWER INFORMATION",
		"Client Name: "+strings.ToUpper(s.ClientName),
		fmt.Sprintf("Client ID: %06d", s.ClientRef),
		"Address: "+orNA(s.Address),
		"Contact Number: "+orNA(s.Phone),
	)
	section("LOAN RECEIPT DETAILS",
		fmt.Sprintf("Loan ID: %d", s.LoanRef),
		"Application Date: "+longDate(s.ApplicationDate),
		"Receipt Date: "+longDate(s.ReceiptDate),
		"Loan Term: "+s.TermLabel,
		"Payment Frequency: Weekly",
	)
	section("LOAN AMOUNT RECEIVED",
		"Principal Amount Received: PHP "+money(s.Principal),
		"Total Repayment Amount: PHP "+money(s.TotalAmount),
		"Weekly Payment Amount: PHP "+money(s.WeeklyPayment),
	)
	section("REPAYMENT SCHEDULE",
		fmt.Sprintf("Number of Payments: %d weekly payments", s.TermWeeks),
		"Expected Completion Date: "+longDate(s.MaturityDate),
	)

	if s.SignatureRequired {
		section("BORROWER ACKNOWLEDGMENT",
			"I acknowledge receipt of the loan amount stated above and agree to",
			"the repayment terms as outlined in the loan agreement.",
		)
		p.Ln(6)
		for _, who := range []string{"Borrower Signature", "Loan Officer Signature"} {
			p.CellFormat(0, 6, "_________________________     Date: ______________", "", 1, "L", false, 0, "")
			p.CellFormat(0, 6, who, "", 1, "L", false, 0, "")
			p.Ln(4)
		}
	}

	p.SetFont("Helvetica", "I", 9)
	p.CellFormat(0, 6, "This document serves as official receipt of loan disbursement.", "T", 1, "L", false, 0, "")
	p.CellFormat(0, 6, "Generated on: "+s.IssuedAt.Format("January 02, 2006 3:04 PM"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func longDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("January 02, 2006")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// money formats d with thousands separators and two decimals.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
