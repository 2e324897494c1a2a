package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

var errStoreDown = errors.New("store down")

// memRepo is a map-backed RecordRepository that remembers creation order.
type memRepo struct {
	mu      sync.Mutex
	records map[string]*entities.UserRecord
	order   []string

	creates int
	updates int

	failFind   error
	failList   error
	failCreate error
	failUpdate map[string]error
}

func newMemRepo(records ...*entities.UserRecord) *memRepo {
	r := &memRepo{records: make(map[string]*entities.UserRecord)}
	for _, rec := range records {
		cp := *rec
		r.records[rec.UserID] = &cp
		r.order = append(r.order, rec.UserID)
	}
	return r
}

func (r *memRepo) FindByUserID(_ context.Context, userID string) (*entities.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failFind != nil {
		return nil, r.failFind
	}
	rec, ok := r.records[userID]
	if !ok {
		return nil, entities.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, rec *entities.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creates++
	if r.failCreate != nil {
		return r.failCreate
	}
	cp := *rec
	r.records[rec.UserID] = &cp
	r.order = append(r.order, rec.UserID)
	return nil
}

func (r *memRepo) Update(_ context.Context, userID string, patch entities.RecordPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates++
	if err := r.failUpdate[userID]; err != nil {
		return err
	}
	rec, ok := r.records[userID]
	if !ok {
		return entities.ErrRecordNotFound
	}
	patch.Apply(rec)
	return nil
}

func (r *memRepo) ListAll(_ context.Context) ([]*entities.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failList != nil {
		return nil, r.failList
	}
	out := make([]*entities.UserRecord, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.records[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) get(userID string) entities.UserRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.records[userID]
}

type sentMessage struct {
	chatID int64
	text   string
	mode   service.FormatMode
}

// recordingSender keeps every message it is asked to send.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string, mode service.FormatMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text, mode: mode})
	return s.err
}
