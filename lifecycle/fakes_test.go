package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"commitbot/lifecycle"
	"commitbot/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	errStore   = errors.New("store unavailable")
	errGateway = errors.New("gateway unavailable")
)

// runTime is 00:05 on a fixed day, when the daily trigger fires.
var runTime = time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC)

const (
	testAutoPauseDays = 7
	testReminderDays  = 3
)

type fakeStore struct {
	mu         sync.Mutex
	members    map[int64]*models.Member
	updates    []int64
	failUpdate map[int64]error
	getAllErr  error
	getAllRuns int
	// afterLoad runs once the snapshot has been handed out.
	afterLoad func()
}

func newFakeStore(members ...*models.Member) *fakeStore {
	s := &fakeStore{members: make(map[int64]*models.Member), failUpdate: make(map[int64]error)}
	for _, m := range members {
		c := *m
		s.members[m.ID] = &c
	}
	return s
}

func (s *fakeStore) GetAll(ctx context.Context) ([]*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.getAllRuns++
	if s.getAllErr != nil {
		return nil, s.getAllErr
	}
	out := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		c := *m
		out = append(out, &c)
	}
	if s.afterLoad != nil {
		s.afterLoad()
	}
	return out, nil
}

func (s *fakeStore) Update(ctx context.Context, id int64, fields models.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.failUpdate[id]; err != nil {
		return err
	}
	m, ok := s.members[id]
	if !ok {
		return errors.New("member not found")
	}
	m.Apply(fields)
	s.updates = append(s.updates, id)
	return nil
}

func (s *fakeStore) get(t *testing.T, id int64) *models.Member {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	require.True(t, ok, "member %d not in store", id)
	c := *m
	return &c
}

type fakeGateway struct {
	mu         sync.Mutex
	direct     map[int64][]string
	group      []string
	removed    []int64
	failDirect map[int64]error
	failRemove map[int64]error
	groupErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		direct:     make(map[int64][]string),
		failDirect: make(map[int64]error),
		failRemove: make(map[int64]error),
	}
}

func (g *fakeGateway) SendDirect(ctx context.Context, memberID int64, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := g.failDirect[memberID]; err != nil {
		return "", err
	}
	g.direct[memberID] = append(g.direct[memberID], text)
	return "msg", nil
}

func (g *fakeGateway) SendGroup(_ context.Context, text, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groupErr != nil {
		return g.groupErr
	}
	g.group = append(g.group, text)
	return nil
}

func (g *fakeGateway) RemoveWithoutBan(_ context.Context, memberID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failRemove[memberID]; err != nil {
		return err
	}
	g.removed = append(g.removed, memberID)
	return nil
}

func (g *fakeGateway) messages(id int64) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.direct[id]
}

type fakeReporter struct {
	results []*lifecycle.Result
	err     error
}

func (r *fakeReporter) SendRunReport(_ context.Context, result *lifecycle.Result) error {
	r.results = append(r.results, result)
	return r.err
}

type fakeLedger struct {
	claimed map[string]bool
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claimed: make(map[string]bool)}
}

func (l *fakeLedger) Claim(_ context.Context, kind, day string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	key := kind + "/" + day
	if l.claimed[key] {
		return false, nil
	}
	l.claimed[key] = true
	return true, nil
}

func (l *fakeLedger) Release(_ context.Context, kind, day string) error {
	delete(l.claimed, kind+"/"+day)
	return nil
}

type harness struct {
	store     *fakeStore
	gateway   *fakeGateway
	reporter  *fakeReporter
	processor *lifecycle.Processor
}

func testConfig() lifecycle.Config {
	return lifecycle.Config{
		AutoPauseDays:       testAutoPauseDays,
		ReminderDays:        testReminderDays,
		NewMemberWindowDays: 7,
		LoadRetryInterval:   time.Millisecond,
		Location:            time.UTC,
		GroupThreadID:       "thread-1",
	}
}

func newHarness(t *testing.T, cfg lifecycle.Config, members ...*models.Member) *harness {
	t.Helper()
	h := &harness{
		store:    newFakeStore(members...),
		gateway:  newFakeGateway(),
		reporter: &fakeReporter{},
	}
	h.processor = lifecycle.NewProcessor(h.store, h.gateway, h.reporter, cfg, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return runTime })
	return h
}

func (h *harness) runDaily(t *testing.T) *lifecycle.Result {
	t.Helper()
	result, err := h.processor.RunDailyCycle(t.Context(), lifecycle.RunOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.Stats)
	return result
}

// dailyMember returns an in-chat daily member with an active subscription so only
// the strike ladder applies.
func dailyMember(id int64) *models.Member {
	return &models.Member{
		ID:                 id,
		Handle:             "member" + string(rune('a'+id%26)),
		InChat:             true,
		Pace:               models.PaceDaily,
		SubscriptionActive: true,
	}
}

func timeRef(t time.Time) *time.Time {
	return &t
}

func ids(entries []lifecycle.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
