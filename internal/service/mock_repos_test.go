package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
)

// ── 内存存储 ──
// 所有 mock repository 共享同一个 mockStore；mockTransactor 在事务开始时快照、出错时回滚

type mockStore struct {
	mu sync.Mutex

	courses     map[string]model.Course
	dailyPlans  []model.DailyPlan
	enrollments map[string]model.Enrollment
	userPlans   map[string]map[int]model.UserDailyPlan // enrollment_id → day_number → row
	completions map[string]model.WorkoutCompletion
	weeks       []model.CourseWeek
	accesses    map[string]model.UserAccess // user_id|course_id
	runs        map[string]model.PlanUpdateRun

	seq int

	// 故障注入
	upsertErr func(enrollmentID string) error
}

func newMockStore() *mockStore {
	return &mockStore{
		courses:     make(map[string]model.Course),
		enrollments: make(map[string]model.Enrollment),
		userPlans:   make(map[string]map[int]model.UserDailyPlan),
		completions: make(map[string]model.WorkoutCompletion),
		accesses:    make(map[string]model.UserAccess),
		runs:        make(map[string]model.PlanUpdateRun),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// snapshot 深拷贝（调用方持有锁）
func (s *mockStore) snapshot() *mockStore {
	c := newMockStore()
	for k, v := range s.courses {
		c.courses[k] = v
	}
	c.dailyPlans = append([]model.DailyPlan(nil), s.dailyPlans...)
	for k, v := range s.enrollments {
		v.SelectedWorkoutDays = append(model.WeekdayArray(nil), v.SelectedWorkoutDays...)
		c.enrollments[k] = v
	}
	for k, days := range s.userPlans {
		m := make(map[int]model.UserDailyPlan, len(days))
		for d, row := range days {
			m[d] = row
		}
		c.userPlans[k] = m
	}
	for k, v := range s.completions {
		c.completions[k] = v
	}
	c.weeks = append([]model.CourseWeek(nil), s.weeks...)
	for k, v := range s.accesses {
		c.accesses[k] = v
	}
	for k, v := range s.runs {
		c.runs[k] = v
	}
	c.seq = s.seq
	return c
}

// restore 用快照覆盖当前状态（调用方持有锁）
func (s *mockStore) restore(snap *mockStore) {
	s.courses = snap.courses
	s.dailyPlans = snap.dailyPlans
	s.enrollments = snap.enrollments
	s.userPlans = snap.userPlans
	s.completions = snap.completions
	s.weeks = snap.weeks
	s.accesses = snap.accesses
	s.runs = snap.runs
	s.seq = snap.seq
}

// ── 测试数据构造 ──

func (s *mockStore) addCourse(c model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.CourseID] = c
}

func (s *mockStore) addDailyPlans(plans ...model.DailyPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyPlans = append(s.dailyPlans, plans...)
}

func (s *mockStore) addEnrollment(e model.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[e.EnrollmentID] = e
}

func (s *mockStore) addCompletion(c model.WorkoutCompletion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[c.CompletionID] = c
}

func (s *mockStore) addAccess(a model.UserAccess) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses[a.UserID+"|"+a.CourseID] = a
}

func (s *mockStore) addWeeks(weeks ...model.CourseWeek) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks = append(s.weeks, weeks...)
}

func (s *mockStore) enrollment(id string) model.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[id]
}

func (s *mockStore) completionsOf(enrollmentID string) []model.WorkoutCompletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WorkoutCompletion
	for _, c := range s.completions {
		if c.EnrollmentID == enrollmentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContentType != out[j].ContentType {
			return out[i].ContentType < out[j].ContentType
		}
		return out[i].StepIndex < out[j].StepIndex
	})
	return out
}

func (s *mockStore) plansOf(enrollmentID string) []model.UserDailyPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedPlans(s.userPlans[enrollmentID])
}

func sortedPlans(days map[int]model.UserDailyPlan) []model.UserDailyPlan {
	out := make([]model.UserDailyPlan, 0, len(days))
	for _, row := range days {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out
}

// newMockRepository 组装基于 store 的 Repository 聚合
func newMockRepository(store *mockStore) *repository.Repository {
	repo := &repository.Repository{
		Course:            &mockCourseRepo{store},
		DailyPlan:         &mockDailyPlanRepo{store},
		Enrollment:        &mockEnrollmentRepo{store},
		UserDailyPlan:     &mockUserDailyPlanRepo{store},
		WorkoutCompletion: &mockCompletionRepo{store},
		CourseWeek:        &mockCourseWeekRepo{store},
		UserAccess:        &mockUserAccessRepo{store},
		PlanUpdateRun:     &mockPlanUpdateRunRepo{store},
	}
	repo.Tx = &mockTransactor{store: store, repo: repo}
	return repo
}

// ── Mock Transactor ──
// 事务之间串行执行（txMu），模拟可串行化隔离；嵌套事务直接复用外层

type mockTransactor struct {
	txMu  sync.Mutex
	store *mockStore
	repo  *repository.Repository
	calls int
}

type nestedTransactor struct {
	repo *repository.Repository
}

func (n *nestedTransactor) Transaction(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(n.repo)
}

func (t *mockTransactor) Transaction(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()
	t.calls++

	t.store.mu.Lock()
	snap := t.store.snapshot()
	t.store.mu.Unlock()

	txRepo := *t.repo
	txRepo.Tx = &nestedTransactor{repo: &txRepo}

	if err := fn(&txRepo); err != nil {
		t.store.mu.Lock()
		t.store.restore(snap)
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ s *mockStore }

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.courses[id]; ok {
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByContentType(_ context.Context, contentType model.CourseContentType) ([]model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Course
	for _, c := range m.s.courses {
		if c.ContentType == contentType {
			out = append(out, c)
		}
	}
	return out, nil
}

// ── Mock DailyPlanRepository ──

type mockDailyPlanRepo struct{ s *mockStore }

func (m *mockDailyPlanRepo) ListByCourse(_ context.Context, courseID string) ([]model.DailyPlan, error) {
	return m.filter(courseID, 0), nil
}

func (m *mockDailyPlanRepo) ListByCourseAndWeek(_ context.Context, courseID string, weekNumber int) ([]model.DailyPlan, error) {
	return m.filter(courseID, weekNumber), nil
}

func (m *mockDailyPlanRepo) filter(courseID string, weekNumber int) []model.DailyPlan {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.DailyPlan
	for _, p := range m.s.dailyPlans {
		if p.CourseID == courseID && (weekNumber == 0 || p.WeekNumber == weekNumber) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ s *mockStore }

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e.EnrollmentID == "" {
		e.EnrollmentID = m.s.nextID("enr")
	}
	e.CreatedAt = time.Now()
	m.s.enrollments[e.EnrollmentID] = *e
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := m.s.courses[e.CourseID]; ok {
		e.Course = &c
	}
	return &e, nil
}

func (m *mockEnrollmentRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Enrollment, error) {
	e, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Course = nil
	return e, nil
}

func (m *mockEnrollmentRepo) GetActiveByUserAndCourse(_ context.Context, userID, courseID string) (*model.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, e := range m.s.enrollments {
		if e.UserID == userID && e.CourseID == courseID && e.Active {
			if c, ok := m.s.courses[e.CourseID]; ok {
				e.Course = &c
			}
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListActiveByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Enrollment
	for _, e := range m.s.enrollments {
		if e.CourseID == courseID && e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].EnrollmentID < out[j].EnrollmentID
	})
	return out, nil
}

func (m *mockEnrollmentRepo) UpdateSelectedWorkoutDays(_ context.Context, id string, days model.WeekdayArray) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.SelectedWorkoutDays = append(model.WeekdayArray(nil), days...)
	m.s.enrollments[id] = e
	return nil
}

func (m *mockEnrollmentRepo) Deactivate(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e, ok := m.s.enrollments[id]; ok {
		e.Active = false
		m.s.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) DeactivateAllByUser(_ context.Context, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, e := range m.s.enrollments {
		if e.UserID == userID && e.Active {
			e.Active = false
			m.s.enrollments[id] = e
		}
	}
	return nil
}

// ── Mock UserDailyPlanRepository ──

type mockUserDailyPlanRepo struct{ s *mockStore }

func (m *mockUserDailyPlanRepo) BatchCreate(_ context.Context, plans []model.UserDailyPlan) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range plans {
		days := m.s.userPlans[p.EnrollmentID]
		if days == nil {
			days = make(map[int]model.UserDailyPlan)
			m.s.userPlans[p.EnrollmentID] = days
		}
		if _, dup := days[p.DayNumber]; dup {
			return fmt.Errorf("duplicate key uq_user_daily_plan_day (%s, %d)", p.EnrollmentID, p.DayNumber)
		}
		p.UserDailyPlanID = m.s.nextID("udp")
		days[p.DayNumber] = p
	}
	return nil
}

func (m *mockUserDailyPlanRepo) Upsert(_ context.Context, plans []model.UserDailyPlan) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range plans {
		if m.s.upsertErr != nil {
			if err := m.s.upsertErr(p.EnrollmentID); err != nil {
				return err
			}
		}
		days := m.s.userPlans[p.EnrollmentID]
		if days == nil {
			days = make(map[int]model.UserDailyPlan)
			m.s.userPlans[p.EnrollmentID] = days
		}
		if existing, ok := days[p.DayNumber]; ok {
			p.UserDailyPlanID = existing.UserDailyPlanID
		} else {
			p.UserDailyPlanID = m.s.nextID("udp")
		}
		days[p.DayNumber] = p
	}
	return nil
}

func (m *mockUserDailyPlanRepo) ListByEnrollment(_ context.Context, enrollmentID string) ([]model.UserDailyPlan, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return sortedPlans(m.s.userPlans[enrollmentID]), nil
}

func (m *mockUserDailyPlanRepo) GetByEnrollmentAndDay(_ context.Context, enrollmentID string, dayNumber int) (*model.UserDailyPlan, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p, ok := m.s.userPlans[enrollmentID][dayNumber]; ok {
		return &p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserDailyPlanRepo) Summarize(_ context.Context, enrollmentID string) (*model.PlanWeekSummary, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	summary := &model.PlanWeekSummary{}
	weeks := make(map[int]struct{})
	for _, p := range m.s.userPlans[enrollmentID] {
		weeks[p.WeekNumber] = struct{}{}
		if p.DayNumber > summary.MaxDayNumber {
			summary.MaxDayNumber = p.DayNumber
		}
	}
	for w := range weeks {
		summary.WeekNumbers = append(summary.WeekNumbers, w)
	}
	sort.Ints(summary.WeekNumbers)
	summary.TotalWeeks = len(summary.WeekNumbers)
	return summary, nil
}

func (m *mockUserDailyPlanRepo) DeleteByEnrollment(_ context.Context, enrollmentID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.userPlans, enrollmentID)
	return nil
}

func (m *mockUserDailyPlanRepo) DeleteByEnrollmentExceptDays(_ context.Context, enrollmentID string, keep []int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	keepSet := make(map[int]struct{}, len(keep))
	for _, d := range keep {
		keepSet[d] = struct{}{}
	}
	for d := range m.s.userPlans[enrollmentID] {
		if _, ok := keepSet[d]; !ok {
			delete(m.s.userPlans[enrollmentID], d)
		}
	}
	return nil
}

// ── Mock WorkoutCompletionRepository ──
// 与数据库一致地校验唯一键 (user, enrollment, content_type, step_index)

type mockCompletionRepo struct{ s *mockStore }

func (m *mockCompletionRepo) conflict(c model.WorkoutCompletion) bool {
	for id, other := range m.s.completions {
		if id != c.CompletionID && other.UserID == c.UserID && other.EnrollmentID == c.EnrollmentID &&
			other.ContentType == c.ContentType && other.StepIndex == c.StepIndex {
			return true
		}
	}
	return false
}

func (m *mockCompletionRepo) Create(_ context.Context, c *model.WorkoutCompletion) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.conflict(*c) {
		return nil // ON CONFLICT DO NOTHING
	}
	if c.CompletionID == "" {
		c.CompletionID = m.s.nextID("wc")
	}
	c.CompletedAt = time.Now()
	m.s.completions[c.CompletionID] = *c
	return nil
}

func (m *mockCompletionRepo) ListByEnrollment(_ context.Context, userID, enrollmentID string) ([]model.WorkoutCompletion, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.WorkoutCompletion
	for _, c := range m.s.completions {
		if c.UserID == userID && c.EnrollmentID == enrollmentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContentType != out[j].ContentType {
			return out[i].ContentType < out[j].ContentType
		}
		return out[i].StepIndex < out[j].StepIndex
	})
	return out, nil
}

func (m *mockCompletionRepo) DeleteBySlot(_ context.Context, userID, enrollmentID string, contentType model.WorkoutContentType, stepIndex int) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, c := range m.s.completions {
		if c.UserID == userID && c.EnrollmentID == enrollmentID && c.ContentType == contentType && c.StepIndex == stepIndex {
			delete(m.s.completions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockCompletionRepo) UpdateStepIndex(_ context.Context, completionID string, stepIndex int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.completions[completionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.StepIndex = stepIndex
	if m.conflict(c) {
		return fmt.Errorf("duplicate key uq_workout_completion (%s, %d)", c.ContentType, stepIndex)
	}
	m.s.completions[completionID] = c
	return nil
}

func (m *mockCompletionRepo) DeleteByIDs(_ context.Context, ids []string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, id := range ids {
		delete(m.s.completions, id)
	}
	return nil
}

func (m *mockCompletionRepo) DeleteByEnrollment(_ context.Context, userID, enrollmentID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, c := range m.s.completions {
		if c.UserID == userID && c.EnrollmentID == enrollmentID {
			delete(m.s.completions, id)
		}
	}
	return nil
}

// ── Mock CourseWeekRepository ──

type mockCourseWeekRepo struct{ s *mockStore }

func (m *mockCourseWeekRepo) Upsert(_ context.Context, week *model.CourseWeek) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i, w := range m.s.weeks {
		if w.CourseID == week.CourseID && w.WeekNumber == week.WeekNumber {
			m.s.weeks[i].ReleaseAt = week.ReleaseAt
			return nil
		}
	}
	if week.CourseWeekID == "" {
		week.CourseWeekID = m.s.nextID("cw")
	}
	m.s.weeks = append(m.s.weeks, *week)
	return nil
}

func (m *mockCourseWeekRepo) GetByCourseAndWeek(_ context.Context, courseID string, weekNumber int) (*model.CourseWeek, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, w := range m.s.weeks {
		if w.CourseID == courseID && w.WeekNumber == weekNumber {
			return &w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseWeekRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseWeek, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.CourseWeek
	for _, w := range m.s.weeks {
		if w.CourseID == courseID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

// ── Mock UserAccessRepository ──

type mockUserAccessRepo struct{ s *mockStore }

func (m *mockUserAccessRepo) GetByUserAndCourse(_ context.Context, userID, courseID string) (*model.UserAccess, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if a, ok := m.s.accesses[userID+"|"+courseID]; ok {
		return &a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserAccessRepo) Upsert(_ context.Context, a *model.UserAccess) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if a.UserAccessID == "" {
		a.UserAccessID = m.s.nextID("ua")
	}
	m.s.accesses[a.UserID+"|"+a.CourseID] = *a
	return nil
}

func (m *mockUserAccessRepo) LinkEnrollment(_ context.Context, userID, courseID string, enrollmentID *string, setupCompleted bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := userID + "|" + courseID
	a, ok := m.s.accesses[key]
	if !ok {
		return nil
	}
	a.EnrollmentID = enrollmentID
	a.IsSetupCompleted = setupCompleted
	m.s.accesses[key] = a
	return nil
}

// ── Mock PlanUpdateRunRepository ──

type mockPlanUpdateRunRepo struct{ s *mockStore }

func (m *mockPlanUpdateRunRepo) Create(_ context.Context, run *model.PlanUpdateRun) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.runs[run.RunID] = *run
	return nil
}

func (m *mockPlanUpdateRunRepo) GetByID(_ context.Context, id string) (*model.PlanUpdateRun, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r, ok := m.s.runs[id]; ok {
		return &r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanUpdateRunRepo) List(_ context.Context, courseID string, offset, limit int) ([]model.PlanUpdateRun, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.PlanUpdateRun
	for _, r := range m.s.runs {
		if courseID == "" || r.CourseID == courseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}
