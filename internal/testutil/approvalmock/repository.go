package approvalmock

import (
	"context"
	"time"

	domain "fanders-backend/internal/domain/approval"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed domain.Repository. Unset lookups report
// context.Canceled so a test notices a call it did not expect.
type Repo struct {
	CreateFn      func(ctx context.Context, a *domain.Approval) error
	GetByLoanIDFn func(ctx context.Context, loanPK uint64) (*domain.Approval, error)
	CountSinceFn  func(ctx context.Context, since time.Time) (map[domain.Decision]int64, error)

	// Created collects every approval passed to Create.
	Created []*domain.Approval
}

func (m *Repo) Create(ctx context.Context, a *domain.Approval) error {
	m.Created = append(m.Created, a)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanPK uint64) (*domain.Approval, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanPK)
	}
	return nil, context.Canceled
}

func (m *Repo) CountSince(ctx context.Context, since time.Time) (map[domain.Decision]int64, error) {
	if m.CountSinceFn != nil {
		return m.CountSinceFn(ctx, since)
	}
	tally := map[domain.Decision]int64{}
	for _, a := range m.Created {
		if !a.ApprovalDate.Before(since) {
			tally[a.Decision]++
		}
	}
	return tally, nil
}
