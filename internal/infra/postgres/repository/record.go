package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/infra/postgres"
)

const schema = `
	CREATE TABLE IF NOT EXISTS user_records (
		seq              BIGSERIAL UNIQUE,
		user_id          TEXT PRIMARY KEY,
		display_name     TEXT NOT NULL,
		streak_days      INTEGER NOT NULL DEFAULT 0,
		total_questions  INTEGER NOT NULL DEFAULT 0,
		total_correct    INTEGER NOT NULL DEFAULT 0,
		today_questions  INTEGER NOT NULL DEFAULT 0,
		today_correct    INTEGER NOT NULL DEFAULT 0,
		last_active_date DATE NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

const selectColumns = `
	user_id, display_name, streak_days, total_questions, total_correct,
	today_questions, today_correct, last_active_date
`

// RecordRepository stores user records in PostgreSQL.
type RecordRepository struct {
	db postgres.DBTX
	tx *postgres.Transactor
}

// NewRecordRepository creates a RecordRepository. tx may be nil when db is already a transaction.
func NewRecordRepository(db postgres.DBTX, tx *postgres.Transactor) *RecordRepository {
	return &RecordRepository{db: db, tx: tx}
}

// Init creates the user_records table if it does not exist.
func (r *RecordRepository) Init(ctx context.Context) error {
	create := func(ctx context.Context, db postgres.DBTX) error {
		if _, err := db.Exec(ctx, schema); err != nil {
			return fmt.Errorf("create user_records: %w", err)
		}
		return nil
	}

	if r.tx == nil {
		return create(ctx, r.db)
	}
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return create(ctx, tx)
	})
}

// FindByUserID returns entities.ErrRecordNotFound when there is no row.
func (r *RecordRepository) FindByUserID(ctx context.Context, userID string) (*entities.UserRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM user_records WHERE user_id = $1`

	rec, err := scanRecord(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	return rec, nil
}

// Create inserts rec. It returns entities.ErrRecordExists if the user already has a row.
func (r *RecordRepository) Create(ctx context.Context, rec *entities.UserRecord) error {
	query := `
		INSERT INTO user_records (
			user_id, display_name, streak_days, total_questions, total_correct,
			today_questions, today_correct, last_active_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query,
		rec.UserID,
		rec.DisplayName,
		rec.StreakDays,
		rec.TotalQuestions,
		rec.TotalCorrect,
		rec.TodayQuestions,
		rec.TodayCorrect,
		toDate(rec.LastActiveDate),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrRecordExists
	}

	return nil
}

// Update writes the set fields of patch.
func (r *RecordRepository) Update(ctx context.Context, userID string, patch entities.RecordPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	query, args := buildUpdate(userID, patch)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrRecordNotFound
	}

	return nil
}

// ListAll returns every record in insertion order.
func (r *RecordRepository) ListAll(ctx context.Context) ([]*entities.UserRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM user_records ORDER BY seq`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*entities.UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

func buildUpdate(userID string, patch entities.RecordPatch) (string, []any) {
	fields := patch.Fields()
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)

	for i, f := range fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, i+1))
		if d, ok := f.Value.(civil.Date); ok {
			args = append(args, toDate(d))
			continue
		}
		args = append(args, f.Value)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE user_records SET %s WHERE user_id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

func scanRecord(row pgx.Row) (*entities.UserRecord, error) {
	var (
		rec        entities.UserRecord
		lastActive time.Time
	)

	err := row.Scan(
		&rec.UserID,
		&rec.DisplayName,
		&rec.StreakDays,
		&rec.TotalQuestions,
		&rec.TotalCorrect,
		&rec.TodayQuestions,
		&rec.TodayCorrect,
		&lastActive,
	)
	if err != nil {
		return nil, err
	}

	rec.LastActiveDate = civil.DateOf(lastActive)
	return &rec, nil
}

func toDate(d civil.Date) time.Time {
	return d.In(time.UTC)
}
