package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	_ "modernc.org/sqlite"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
)

// Open opens the database file at path. One connection serializes writers
// and keeps ":memory:" databases shared.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	return db, nil
}

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS user_records (
			user_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			streak_days INTEGER NOT NULL DEFAULT 0,
			total_questions INTEGER NOT NULL DEFAULT 0,
			total_correct INTEGER NOT NULL DEFAULT 0,
			today_questions INTEGER NOT NULL DEFAULT 0,
			today_correct INTEGER NOT NULL DEFAULT 0,
			last_active_date TEXT NOT NULL
		);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create user_records: %w", err)
	}
	return nil
}

func (r *RecordRepository) FindByUserID(ctx context.Context, userID string) (*entities.UserRecord, error) {
	query := `
		SELECT user_id, display_name, streak_days, total_questions, total_correct,
			today_questions, today_correct, last_active_date
		FROM user_records WHERE user_id = ?
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (r *RecordRepository) Create(ctx context.Context, rec *entities.UserRecord) error {
	query := `
		INSERT INTO user_records (
			user_id, display_name, streak_days, total_questions, total_correct,
			today_questions, today_correct, last_active_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.DisplayName, rec.StreakDays, rec.TotalQuestions, rec.TotalCorrect,
		rec.TodayQuestions, rec.TodayCorrect, rec.LastActiveDate.String(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if n == 0 {
		return entities.ErrRecordExists
	}
	return nil
}

func (r *RecordRepository) Update(ctx context.Context, userID string, patch entities.RecordPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		sets = append(sets, f.Column+" = ?")
		if d, ok := f.Value.(civil.Date); ok {
			args = append(args, d.String())
			continue
		}
		args = append(args, f.Value)
	}
	args = append(args, userID)

	query := "UPDATE user_records SET " + strings.Join(sets, ", ") + " WHERE user_id = ?"

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if n == 0 {
		return entities.ErrRecordNotFound
	}
	return nil
}

// ListAll returns records in insertion order.
func (r *RecordRepository) ListAll(ctx context.Context) ([]*entities.UserRecord, error) {
	query := `
		SELECT user_id, display_name, streak_days, total_questions, total_correct,
			today_questions, today_correct, last_active_date
		FROM user_records ORDER BY rowid
	`

	rows, err := r.db.QueryContext(ctx, query)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*entities.UserRecord, error) {
	var (
		rec        entities.UserRecord
		lastActive string
	)

	err := row.Scan(
		&rec.UserID, &rec.DisplayName, &rec.StreakDays, &rec.TotalQuestions, &rec.TotalCorrect,
		&rec.TodayQuestions, &rec.TodayCorrect, &lastActive,
	)
	if err != nil {
		return nil, err
	}

	rec.LastActiveDate, err = civil.ParseDate(lastActive)
	if err != nil {
		return nil, fmt.Errorf("parse last_active_date %q: %w", lastActive, err)
	}
	return &rec, nil
}
