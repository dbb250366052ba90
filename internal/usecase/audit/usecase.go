package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	domain "fanders-backend/internal/domain/audit"
	"fanders-backend/internal/domain/user"
)

// Recorder writes audit entries after a workflow succeeds. Write failures are logged
// and swallowed; the workflow has already committed.
type Recorder struct {
	repo domain.Repository
	log  *logrus.Logger
}

func NewRecorder(r domain.Repository, log *logrus.Logger) *Recorder {
	return &Recorder{repo: r, log: log}
}

// Record stores one entry. details is marshalled to JSON when it is not a string.
func (r *Recorder) Record(ctx context.Context, actor user.Actor, entity, entityID, action string, details any) {
	if r == nil || r.repo == nil {
		return
	}
	e := &domain.Entry{
		UserID:   actor.ID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  detailText(details),
	}
	if err := r.repo.Create(ctx, e); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"entity": entity, "entity_id": entityID, "action": action,
		}).Warn("audit: record failed")
	}
}

func detailText(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

type ListInput struct {
	UserID uint64
	Entity string
	Action string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type Page struct {
	Items []domain.Entry `json:"items"`
	Total int64          `json:"total"`
}

// List is the read side for managers.
func (r *Recorder) List(ctx context.Context, in ListInput) (*Page, error) {
	items, total, err := r.repo.List(ctx, domain.ListFilter{
		UserID: in.UserID, Entity: in.Entity, Action: in.Action,
		From: in.From, To: in.To, Limit: in.Limit, Offset: in.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}
