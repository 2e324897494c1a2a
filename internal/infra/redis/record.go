package redis

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/redis/rueidis"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
)

const (
	fieldUserID      = "user_id"
	fieldDisplayName = "display_name"

	// present on every complete record; a hash without it is treated as absent
	fieldLastActive = "last_active_date"
)

// createScript writes the hash and appends the index entry in one step.
// KEYS[1] user hash, KEYS[2] index, ARGV field/value pairs starting with user_id.
var createScript = rueidis.NewLuaScript(`
if redis.call('HEXISTS', KEYS[1], 'last_active_date') == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
redis.call('LREM', KEYS[2], 0, ARGV[2])
redis.call('RPUSH', KEYS[2], ARGV[2])
return 1
`)

// NewClient connects to a single Redis node.
func NewClient(addr, password string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("new redis client: %w", err)
	}
	return client, nil
}

// RecordRepository keeps one hash per user plus a list of user IDs in creation order.
type RecordRepository struct {
	client rueidis.Client
	prefix string
}

func NewRecordRepository(client rueidis.Client, prefix string) *RecordRepository {
	return &RecordRepository{client: client, prefix: prefix}
}

func (r *RecordRepository) userKey(userID string) string {
	return r.prefix + "user:" + userID
}

func (r *RecordRepository) indexKey() string {
	return r.prefix + "users"
}

// Init checks the connection. Redis needs no schema.
func (r *RecordRepository) Init(ctx context.Context) error {
	if err := r.client.Do(ctx, r.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *RecordRepository) FindByUserID(ctx context.Context, userID string) (*entities.UserRecord, error) {
	fields, err := r.client.Do(ctx, r.client.B().Hgetall().Key(r.userKey(userID)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", userID, err)
	}
	if _, ok := fields[fieldLastActive]; !ok {
		return nil, entities.ErrRecordNotFound
	}

	rec, err := decodeRecord(fields)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", userID, err)
	}
	return rec, nil
}

// Create writes the user's hash and appends the user to the index atomically.
// A hash left half-written by an older client is overwritten.
func (r *RecordRepository) Create(ctx context.Context, rec *entities.UserRecord) error {
	args := []string{fieldUserID, rec.UserID, fieldDisplayName, rec.DisplayName}
	for _, f := range rec.Patch().Fields() {
		args = append(args, f.Column, encodeValue(f.Value))
	}

	created, err := createScript.Exec(ctx, r.client, []string{r.userKey(rec.UserID), r.indexKey()}, args).AsInt64()
	if err != nil {
		return fmt.Errorf("create record %s: %w", rec.UserID, err)
	}
	if created == 0 {
		return entities.ErrRecordExists
	}

	return nil
}

func (r *RecordRepository) Update(ctx context.Context, userID string, patch entities.RecordPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	key := r.userKey(userID)

	exists, err := r.client.Do(ctx, r.client.B().Hexists().Key(key).Field(fieldLastActive).Build()).AsBool()
	if err != nil {
		return fmt.Errorf("check record %s: %w", userID, err)
	}
	if !exists {
		return entities.ErrRecordNotFound
	}

	hset := r.client.B().Hset().Key(key).FieldValue()
	for _, f := range patch.Fields() {
		hset = hset.FieldValue(f.Column, encodeValue(f.Value))
	}

	if err := r.client.Do(ctx, hset.Build()).Error(); err != nil {
		return fmt.Errorf("update record %s: %w", userID, err)
	}
	return nil
}

// ListAll reads the index and fetches every hash in one round trip.
func (r *RecordRepository) ListAll(ctx context.Context) ([]*entities.UserRecord, error) {
	ids, err := r.client.Do(ctx, r.client.B().Lrange().Key(r.indexKey()).Start(0).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	ids = uniqueIDs(ids)

	cmds := make(rueidis.Commands, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, r.client.B().Hgetall().Key(r.userKey(id)).Build())
	}

	records := make([]*entities.UserRecord, 0, len(ids))
	for i, resp := range r.client.DoMulti(ctx, cmds...) {
		fields, err := resp.AsStrMap()
		if err != nil {
			return nil, fmt.Errorf("get record %s: %w", ids[i], err)
		}
		if _, ok := fields[fieldLastActive]; !ok {
			continue
		}

		rec, err := decodeRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", ids[i], err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// uniqueIDs keeps the first occurrence of each id.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func encodeValue(v any) string {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case civil.Date:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func decodeRecord(fields map[string]string) (*entities.UserRecord, error) {
	rec := &entities.UserRecord{
		UserID:      fields[fieldUserID],
		DisplayName: fields[fieldDisplayName],
	}

	ints := []struct {
		column string
		dst    *int
	}{
		{"streak_days", &rec.StreakDays},
		{"total_questions", &rec.TotalQuestions},
		{"total_correct", &rec.TotalCorrect},
		{"today_questions", &rec.TodayQuestions},
		{"today_correct", &rec.TodayCorrect},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(fields[f.column])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.column, err)
		}
		*f.dst = n
	}

	date, err := civil.ParseDate(fields[fieldLastActive])
	if err != nil {
		return nil, fmt.Errorf("field last_active_date: %w", err)
	}
	rec.LastActiveDate = date

	return rec, nil
}
