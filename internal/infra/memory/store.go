package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

type enrollmentKey struct{ userID, courseID int64 }

type progressKey struct{ userID, lessonID int64 }

type userBadgeKey struct{ userID, badgeID int64 }

type state struct {
	seq         int64
	users       map[int64]domain.User
	courses     map[int64]domain.Course
	lessons     map[int64]domain.Lesson
	badges      map[int64]domain.Badge
	levels      []domain.LevelThreshold
	enrollments map[enrollmentKey]domain.Enrollment
	progress    map[progressKey]domain.LessonProgress
	userBadges  map[userBadgeKey]domain.UserBadge
	ledger      []domain.XPTransaction
	attempts    []domain.QuizAttempt
}

func newState() *state {
	return &state{
		users:       make(map[int64]domain.User),
		courses:     make(map[int64]domain.Course),
		lessons:     make(map[int64]domain.Lesson),
		badges:      make(map[int64]domain.Badge),
		enrollments: make(map[enrollmentKey]domain.Enrollment),
		progress:    make(map[progressKey]domain.LessonProgress),
		userBadges:  make(map[userBadgeKey]domain.UserBadge),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table. Rows are values and are only ever replaced,
// never mutated in place, so a shallow row copy is enough.
func (s *state) clone() *state {
	return &state{
		seq:         s.seq,
		users:       cloneMap(s.users),
		courses:     cloneMap(s.courses),
		lessons:     cloneMap(s.lessons),
		badges:      cloneMap(s.badges),
		levels:      append([]domain.LevelThreshold(nil), s.levels...),
		enrollments: cloneMap(s.enrollments),
		progress:    cloneMap(s.progress),
		userBadges:  cloneMap(s.userBadges),
		ledger:      append([]domain.XPTransaction(nil), s.ledger...),
		attempts:    append([]domain.QuizAttempt(nil), s.attempts...),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// assignID keeps explicit seed IDs and moves the sequence past them.
func (s *state) assignID(id int64) int64 {
	if id == 0 {
		return s.nextID()
	}
	if id > s.seq {
		s.seq = id
	}
	return id
}

// Store is an in-memory unit of work. Units of work are serialized; each one
// runs against a private copy of the tables that replaces the committed
// state only when the callback returns nil.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

func NewStore() *Store {
	return &Store{st: newState(), faults: make(map[string]error)}
}

var _ app.UnitOfWork = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &txn{store: s, st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// FailOn makes the next call of op inside a unit of work fail with err.
// AppendXP can be targeted per source, e.g. "AppendXP:course_completion".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	s.faults[op] = err
	s.mu.Unlock()
}

// fault is called with mu held by WithinTx.
func (s *Store) fault(ops ...string) error {
	for _, op := range ops {
		if err, ok := s.faults[op]; ok {
			delete(s.faults, op)
			return err
		}
	}
	return nil
}

// AddUser seeds a user and returns it with its assigned ID.
func (s *Store) AddUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.st.assignID(u.ID)
	if u.Level == 0 {
		u.Level = 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.st.users[u.ID] = u
	return u
}

// AddCourse seeds a course.
func (s *Store) AddCourse(c domain.Course) domain.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.st.assignID(c.ID)
	s.st.courses[c.ID] = c
	return c
}

// AddLesson seeds a lesson of an already seeded course.
func (s *Store) AddLesson(l domain.Lesson) domain.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.st.assignID(l.ID)
	s.st.lessons[l.ID] = l
	return l
}

// AddBadge seeds a course badge.
func (s *Store) AddBadge(b domain.Badge) domain.Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.st.assignID(b.ID)
	s.st.badges[b.ID] = b
	return b
}

// SetLevels replaces the level thresholds.
func (s *Store) SetLevels(levels ...domain.LevelThreshold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.levels = append([]domain.LevelThreshold(nil), levels...)
}

// User returns the committed user row.
func (s *Store) User(userID int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[userID]
	return u, ok
}

// Ledger returns the committed ledger entries of a user in append order.
func (s *Store) Ledger(userID int64) []domain.XPTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.XPTransaction
	for _, e := range s.st.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// UserBadges returns the committed badge grants of a user.
func (s *Store) UserBadges(userID int64) []domain.UserBadge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserBadge
	for k, ub := range s.st.userBadges {
		if k.userID == userID {
			out = append(out, ub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeID < out[j].BadgeID })
	return out
}

// Enrollment returns the committed enrollment, nil when absent.
func (s *Store) Enrollment(userID, courseID int64) *domain.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.enrollments[enrollmentKey{userID, courseID}]
	if !ok {
		return nil
	}
	return &e
}

// txn implements app.Tx over a private copy of the tables.
type txn struct {
	store *Store
	st    *state
}

var _ app.Tx = (*txn)(nil)

func (t *txn) joinCourse(l domain.Lesson) domain.Lesson {
	if c, ok := t.st.courses[l.CourseID]; ok {
		l.CourseTitle = c.Title
		l.CourseXPReward = c.XPReward
	}
	return l
}

func (t *txn) Course(_ context.Context, courseID int64) (domain.Course, error) {
	c, ok := t.st.courses[courseID]
	if !ok {
		return domain.Course{}, domain.NotFound("Course")
	}
	return c, nil
}

func (t *txn) LessonWithCourse(_ context.Context, lessonID int64) (domain.Lesson, error) {
	l, ok := t.st.lessons[lessonID]
	if !ok {
		return domain.Lesson{}, domain.NotFound("Lesson")
	}
	return t.joinCourse(l), nil
}

func (t *txn) CourseLessons(_ context.Context, courseID int64) ([]domain.Lesson, error) {
	out := make([]domain.Lesson, 0)
	for _, l := range t.st.lessons {
		if l.CourseID == courseID {
			out = append(out, t.joinCourse(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *txn) NextLesson(ctx context.Context, courseID int64, afterOrder int) (*domain.Lesson, error) {
	lessons, _ := t.CourseLessons(ctx, courseID)
	for _, l := range lessons {
		if l.OrderIndex > afterOrder {
			l := l
			return &l, nil
		}
	}
	return nil, nil
}

func (t *txn) CountLessons(_ context.Context, courseID int64) (int, error) {
	n := 0
	for _, l := range t.st.lessons {
		if l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (t *txn) BadgeForCourse(_ context.Context, courseID int64) (*domain.Badge, error) {
	var found *domain.Badge
	for _, b := range t.st.badges {
		if b.CourseID == courseID && (found == nil || b.ID < found.ID) {
			b := b
			found = &b
		}
	}
	return found, nil
}

func (t *txn) LockUser(_ context.Context, userID int64) (domain.User, error) {
	if err := t.store.fault("LockUser"); err != nil {
		return domain.User{}, err
	}
	u, ok := t.st.users[userID]
	if !ok {
		return domain.User{}, domain.NotFound("User")
	}
	return u, nil
}

func (t *txn) UpdateUser(_ context.Context, userID int64, patch domain.UserPatch) error {
	if err := t.store.fault("UpdateUser"); err != nil {
		return err
	}
	u, ok := t.st.users[userID]
	if !ok {
		return domain.NotFound("User")
	}
	t.st.users[userID] = patch.Apply(u)
	return nil
}

func (t *txn) IncrementXP(_ context.Context, userID int64, amount int64) (int64, error) {
	if err := t.store.fault("IncrementXP"); err != nil {
		return 0, err
	}
	u, ok := t.st.users[userID]
	if !ok {
		return 0, domain.NotFound("User")
	}
	u.XP += amount
	t.st.users[userID] = u
	return u.XP, nil
}

func (t *txn) Enrollment(_ context.Context, userID, courseID int64) (*domain.Enrollment, error) {
	e, ok := t.st.enrollments[enrollmentKey{userID, courseID}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (t *txn) CreateEnrollment(_ context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	if err := t.store.fault("CreateEnrollment"); err != nil {
		return domain.Enrollment{}, err
	}
	key := enrollmentKey{e.UserID, e.CourseID}
	if _, exists := t.st.enrollments[key]; exists {
		return domain.Enrollment{}, domain.ErrConflict
	}
	e.ID = t.st.nextID()
	t.st.enrollments[key] = e
	return e, nil
}

func (t *txn) UpdateEnrollment(_ context.Context, userID, courseID int64, patch domain.EnrollmentPatch) (domain.Enrollment, error) {
	if err := t.store.fault("UpdateEnrollment"); err != nil {
		return domain.Enrollment{}, err
	}
	key := enrollmentKey{userID, courseID}
	e, ok := t.st.enrollments[key]
	if !ok {
		return domain.Enrollment{}, domain.ErrNotEnrolled
	}
	e = patch.Apply(e)
	t.st.enrollments[key] = e
	return e, nil
}

func (t *txn) DeleteEnrollment(_ context.Context, userID, courseID int64) error {
	if err := t.store.fault("DeleteEnrollment"); err != nil {
		return err
	}
	delete(t.st.enrollments, enrollmentKey{userID, courseID})
	return nil
}

func (t *txn) LessonProgress(_ context.Context, userID, lessonID int64) (*domain.LessonProgress, error) {
	p, ok := t.st.progress[progressKey{userID, lessonID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *txn) CourseLessonProgress(_ context.Context, userID, courseID int64) ([]domain.LessonProgress, error) {
	var out []domain.LessonProgress
	for k, p := range t.st.progress {
		if k.userID != userID {
			continue
		}
		if l, ok := t.st.lessons[k.lessonID]; ok && l.CourseID == courseID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return out, nil
}

func (t *txn) StartLesson(_ context.Context, userID, lessonID int64, now time.Time) (domain.LessonProgress, error) {
	if err := t.store.fault("StartLesson"); err != nil {
		return domain.LessonProgress{}, err
	}
	key := progressKey{userID, lessonID}
	if p, ok := t.st.progress[key]; ok && p.Status != domain.LessonNotStarted {
		return p, nil
	}
	started := now
	p := domain.LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		Status:    domain.LessonInProgress,
		StartedAt: &started,
		UpdatedAt: now,
	}
	t.st.progress[key] = p
	return p, nil
}

func (t *txn) CompleteLesson(_ context.Context, userID, lessonID int64, now time.Time) (domain.LessonProgress, bool, error) {
	if err := t.store.fault("CompleteLesson"); err != nil {
		return domain.LessonProgress{}, false, err
	}
	key := progressKey{userID, lessonID}
	p, ok := t.st.progress[key]
	if ok && p.Status == domain.LessonCompleted {
		return p, false, nil
	}
	completed := now
	if p.StartedAt == nil {
		started := now
		p.StartedAt = &started
	}
	p.UserID = userID
	p.LessonID = lessonID
	p.Status = domain.LessonCompleted
	p.CompletedAt = &completed
	p.UpdatedAt = now
	t.st.progress[key] = p
	return p, true, nil
}

func (t *txn) CountCompletedLessons(_ context.Context, userID, courseID int64) (int, error) {
	n := 0
	for k, p := range t.st.progress {
		if k.userID != userID || p.Status != domain.LessonCompleted {
			continue
		}
		if l, ok := t.st.lessons[k.lessonID]; ok && l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (t *txn) DeleteCourseProgress(_ context.Context, userID, courseID int64) error {
	if err := t.store.fault("DeleteCourseProgress"); err != nil {
		return err
	}
	for k := range t.st.progress {
		if k.userID != userID {
			continue
		}
		if l, ok := t.st.lessons[k.lessonID]; ok && l.CourseID == courseID {
			delete(t.st.progress, k)
		}
	}
	return nil
}

func (t *txn) AppendXP(_ context.Context, entry domain.XPTransaction) (domain.XPTransaction, error) {
	if err := t.store.fault("AppendXP", "AppendXP:"+string(entry.Source)); err != nil {
		return domain.XPTransaction{}, err
	}
	if _, ok := t.st.users[entry.UserID]; !ok {
		return domain.XPTransaction{}, domain.NotFound("User")
	}
	entry.ID = t.st.nextID()
	t.st.ledger = append(t.st.ledger, entry)
	return entry, nil
}

func (t *txn) HasXPEntry(_ context.Context, userID int64, source domain.XPSource, referenceID int64) (bool, error) {
	for _, e := range t.st.ledger {
		if e.UserID == userID && e.Source == source && e.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func (t *txn) SumXP(_ context.Context, userID int64, source domain.XPSource, referenceIDs []int64) (int64, error) {
	refs := make(map[int64]struct{}, len(referenceIDs))
	for _, id := range referenceIDs {
		refs[id] = struct{}{}
	}
	var sum int64
	for _, e := range t.st.ledger {
		if e.UserID != userID || e.Source != source {
			continue
		}
		if _, ok := refs[e.ReferenceID]; ok {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (t *txn) InsertUserBadge(_ context.Context, userID, badgeID int64, now time.Time) (bool, error) {
	if err := t.store.fault("InsertUserBadge"); err != nil {
		return false, err
	}
	key := userBadgeKey{userID, badgeID}
	if _, ok := t.st.userBadges[key]; ok {
		return false, nil
	}
	t.st.userBadges[key] = domain.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: now}
	return true, nil
}

func (t *txn) CreateAttempt(_ context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	if err := t.store.fault("CreateAttempt"); err != nil {
		return domain.QuizAttempt{}, err
	}
	attempt.ID = t.st.nextID()
	answers := make([]domain.UserAnswer, len(attempt.Answers))
	for i, a := range attempt.Answers {
		a.AttemptID = attempt.ID
		answers[i] = a
	}
	attempt.Answers = answers
	t.st.attempts = append(t.st.attempts, attempt)
	return attempt, nil
}

func (t *txn) userAttempts(userID, quizID int64) []domain.QuizAttempt {
	var out []domain.QuizAttempt
	for _, a := range t.st.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}

func (t *txn) Attempts(_ context.Context, userID, quizID int64, limit, offset int) ([]domain.QuizAttempt, int, error) {
	all := t.userAttempts(userID, quizID)
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	if offset >= total {
		return []domain.QuizAttempt{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (t *txn) BestAttempt(_ context.Context, userID, quizID int64) (*domain.QuizAttempt, error) {
	var best *domain.QuizAttempt
	for _, a := range t.userAttempts(userID, quizID) {
		a := a
		if best == nil || a.Score > best.Score || (a.Score == best.Score && a.CompletionTime < best.CompletionTime) {
			best = &a
		}
	}
	return best, nil
}
