package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"commitbot/models"
)

// ErrMemberNotFound 更新未匹配到任何行时返回
var ErrMemberNotFound = errors.New("member not found")

// ErrUnknownColumn 部分更新包含不可更新的列时返回
var ErrUnknownColumn = errors.New("unknown member column")

var updatableColumns = map[string]bool{
	models.ColInChat:                true,
	models.ColPostToday:             true,
	models.ColStrikesCount:          true,
	models.ColConsecutivePostsCount: true,
	models.ColUnitsCount:            true,
	models.ColPauseStartedAt:        true,
	models.ColPauseUntil:            true,
	models.ColPauseDays:             true,
	models.ColSubscriptionDaysLeft:  true,
	models.ColExpiresAt:             true,
	models.ColLastPostDate:          true,
	models.ColLeftAt:                true,
}

const memberColumns = `id, handle, in_chat, pace, mode, post_today, strikes_count, consecutive_posts_count,
    units_count, pause_started_at, pause_until, pause_days, subscription_active, subscription_days_left,
    expires_at, last_post_date, created_at, joined_at, left_at, updated_at, club, public_remind`

// MemberStore 处理成员记录的读取和更新
type MemberStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewMemberStore 创建成员存储实例
func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db, now: time.Now}
}

// GetAll 按 id 顺序返回所有成员记录
func (s *MemberStore) GetAll(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// Update 对单个成员执行部分更新，并刷新 updated_at
func (s *MemberStore) Update(ctx context.Context, id int64, fields models.Fields) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, toDBValue(fields[col]))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC(), id)

	query := "UPDATE members SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update member %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for member %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrMemberNotFound, id)
	}
	return nil
}

// insert 写入成员记录，已存在相同 id 时整行替换
// 成员由入群流程创建，本程序只读取和更新
func (s *MemberStore) insert(ctx context.Context, m *models.Member) error {
	now := s.now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.Pace == "" {
		m.Pace = models.PaceDaily
	}

	query := `INSERT OR REPLACE INTO members (` + memberColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.Handle, m.InChat, string(m.Pace), m.Mode, m.PostToday, m.StrikesCount, m.ConsecutivePostsCount,
		m.UnitsCount, nullTime(m.PauseStartedAt), nullTime(m.PauseUntil), m.PauseDays, m.SubscriptionActive,
		m.SubscriptionDaysLeft, nullTime(m.ExpiresAt), nullTime(m.LastPostDate), m.CreatedAt, nullTime(m.JoinedAt),
		nullTime(m.LeftAt), m.UpdatedAt, m.Club, m.PublicRemind,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member %d: %w", m.ID, err)
	}
	return nil
}

func scanMember(rows *sql.Rows) (*models.Member, error) {
	var (
		m                                        models.Member
		pace                                     string
		pauseStarted, pauseUntil, expires, lastP sql.NullTime
		joined, left                             sql.NullTime
		subActive                                sql.NullBool
	)

	err := rows.Scan(
		&m.ID, &m.Handle, &m.InChat, &pace, &m.Mode, &m.PostToday, &m.StrikesCount, &m.ConsecutivePostsCount,
		&m.UnitsCount, &pauseStarted, &pauseUntil, &m.PauseDays, &subActive, &m.SubscriptionDaysLeft,
		&expires, &lastP, &m.CreatedAt, &joined, &left, &m.UpdatedAt, &m.Club, &m.PublicRemind,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.Pace = models.Pace(pace)
	// NULL 表示从未记录过付费周期
	m.SubscriptionActive = subActive.Valid && subActive.Bool
	m.PauseStartedAt = timePtr(pauseStarted)
	m.PauseUntil = timePtr(pauseUntil)
	m.ExpiresAt = timePtr(expires)
	m.LastPostDate = timePtr(lastP)
	m.JoinedAt = timePtr(joined)
	m.LeftAt = timePtr(left)
	return &m, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func toDBValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC()
	case *time.Time:
		return nullTime(val)
	default:
		return v
	}
}
