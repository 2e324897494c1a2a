package entities

import (
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/civil"
)

var (
	ErrRecordNotFound   = errors.New("user record not found")
	ErrRecordExists     = errors.New("user record already exists")
	ErrInvalidReport    = errors.New("invalid daily report")
	ErrOutOfOrderReport = fmt.Errorf("%w: report date precedes last active date", ErrInvalidReport)
)

// MaxReportCount caps the questions of a single daily report.
const MaxReportCount = 10_000

// maxTotal is the largest total the stores can hold (32-bit columns).
const maxTotal = math.MaxInt32

// UserRecord is the persisted quiz history of one chat participant.
type UserRecord struct {
	UserID      string // Telegram user ID, decimal
	DisplayName string // set on creation, never changed afterwards

	StreakDays     int // consecutive active days
	TotalQuestions int
	TotalCorrect   int

	// Contribution of LastActiveDate to the totals. A resubmission on the same
	// day swaps this out instead of adding to it.
	TodayQuestions int
	TodayCorrect   int

	LastActiveDate civil.Date
}

// DailyReport is one "<attempted>/<correct>" message.
type DailyReport struct {
	UserID      string
	DisplayName string
	Attempted   int
	Correct     int
}

// Validate reports ErrInvalidReport for negative or oversized counts and for
// more correct answers than questions.
func (r DailyReport) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidReport)
	}
	if r.Attempted < 0 || r.Correct < 0 {
		return fmt.Errorf("%w: negative count", ErrInvalidReport)
	}
	if r.Attempted > MaxReportCount {
		return fmt.Errorf("%w: more than %d questions", ErrInvalidReport, MaxReportCount)
	}
	if r.Correct > r.Attempted {
		return fmt.Errorf("%w: correct exceeds attempted", ErrInvalidReport)
	}
	return nil
}

// ReportOutcome tells which branch a report took.
type ReportOutcome string

const (
	OutcomeCreated     ReportOutcome = "created"     // first report ever
	OutcomeAdvanced    ReportOutcome = "advanced"    // last report was yesterday
	OutcomeRestarted   ReportOutcome = "restarted"   // gap of one or more days
	OutcomeResubmitted ReportOutcome = "resubmitted" // second report on the same day
)

// NewUserRecord seeds a record from the user's first report.
func NewUserRecord(r DailyReport, today civil.Date) *UserRecord {
	return &UserRecord{
		UserID:         r.UserID,
		DisplayName:    r.DisplayName,
		StreakDays:     1,
		TotalQuestions: r.Attempted,
		TotalCorrect:   r.Correct,
		TodayQuestions: r.Attempted,
		TodayCorrect:   r.Correct,
		LastActiveDate: today,
	}
}

// ApplyReport folds a report for today into the record.
//
//  1. Same day: the previous contribution for today is replaced, streak unchanged.
//  2. Last active yesterday: streak grows by one and the report is added.
//  3. Older: streak restarts at 1, totals keep growing.
//
// The record is left untouched when an error is returned.
func (u *UserRecord) ApplyReport(r DailyReport, today, yesterday civil.Date) (ReportOutcome, error) {
	if today.Before(u.LastActiveDate) {
		return "", ErrOutOfOrderReport
	}

	var (
		outcome   ReportOutcome
		streak    = u.StreakDays
		questions = u.TotalQuestions
		correct   = u.TotalCorrect
	)
	switch u.LastActiveDate {
	case today:
		questions -= u.TodayQuestions
		correct -= u.TodayCorrect
		outcome = OutcomeResubmitted

	case yesterday:
		streak++
		outcome = OutcomeAdvanced

	default:
		streak = 1
		outcome = OutcomeRestarted
	}

	if questions > maxTotal-r.Attempted || correct > maxTotal-r.Correct {
		return "", fmt.Errorf("%w: totals would exceed %d", ErrInvalidReport, maxTotal)
	}

	u.StreakDays = streak
	u.TotalQuestions = questions + r.Attempted
	u.TotalCorrect = correct + r.Correct
	u.TodayQuestions = r.Attempted
	u.TodayCorrect = r.Correct
	u.LastActiveDate = today

	return outcome, nil
}

// EffectiveStreak is the streak shown on today's leaderboard: zero unless the user reported today.
func (u *UserRecord) EffectiveStreak(today civil.Date) int {
	if u.LastActiveDate == today {
		return u.StreakDays
	}
	return 0
}

// Patch returns every field a report may change. DisplayName is excluded.
func (u *UserRecord) Patch() RecordPatch {
	return RecordPatch{
		StreakDays:     &u.StreakDays,
		TotalQuestions: &u.TotalQuestions,
		TotalCorrect:   &u.TotalCorrect,
		TodayQuestions: &u.TodayQuestions,
		TodayCorrect:   &u.TodayCorrect,
		LastActiveDate: &u.LastActiveDate,
	}
}

// RecordPatch is a partial update. Nil fields are left as stored.
type RecordPatch struct {
	StreakDays     *int
	TotalQuestions *int
	TotalCorrect   *int
	TodayQuestions *int
	TodayCorrect   *int
	LastActiveDate *civil.Date
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.StreakDays == nil &&
		p.TotalQuestions == nil &&
		p.TotalCorrect == nil &&
		p.TodayQuestions == nil &&
		p.TodayCorrect == nil &&
		p.LastActiveDate == nil
}

// Apply writes the non-nil fields of p into u.
func (p RecordPatch) Apply(u *UserRecord) {
	if p.StreakDays != nil {
		u.StreakDays = *p.StreakDays
	}
	if p.TotalQuestions != nil {
		u.TotalQuestions = *p.TotalQuestions
	}
	if p.TotalCorrect != nil {
		u.TotalCorrect = *p.TotalCorrect
	}
	if p.TodayQuestions != nil {
		u.TodayQuestions = *p.TodayQuestions
	}
	if p.TodayCorrect != nil {
		u.TodayCorrect = *p.TodayCorrect
	}
	if p.LastActiveDate != nil {
		u.LastActiveDate = *p.LastActiveDate
	}
}

// PatchField is one column a patch writes.
type PatchField struct {
	Column string
	Value  any // int or civil.Date
}

// Fields lists the set fields of p in a fixed column order.
func (p RecordPatch) Fields() []PatchField {
	var out []PatchField
	add := func(column string, v *int) {
		if v != nil {
			out = append(out, PatchField{Column: column, Value: *v})
		}
	}

	add("streak_days", p.StreakDays)
	add("total_questions", p.TotalQuestions)
	add("total_correct", p.TotalCorrect)
	add("today_questions", p.TodayQuestions)
	add("today_correct", p.TodayCorrect)
	if p.LastActiveDate != nil {
		out = append(out, PatchField{Column: "last_active_date", Value: *p.LastActiveDate})
	}

	return out
}

// ResetStreakPatch zeroes the stored streak and nothing else.
func ResetStreakPatch() RecordPatch {
	zero := 0
	return RecordPatch{StreakDays: &zero}
}
