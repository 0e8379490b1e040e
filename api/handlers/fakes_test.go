package handlers_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/OldStager01/healthcare-records/internal/prediction"
	"github.com/OldStager01/healthcare-records/pkg/database/queries"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

var errDown = errors.New("connection refused")

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int
	err    error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byName: make(map[string]*models.User), nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = f.nextID
		}
		f.nextID = u.ID + 1
		f.byName[u.Username] = u
	}
	return f
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, queries.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, queries.ErrUserNotFound
}

func (f *fakeUsers) Exists(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.byName {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	f.byName[user.Username] = user
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			u.LastLogin = &at
		}
	}
	return nil
}

func (f *fakeUsers) List(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.User
	for _, u := range f.byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePatients struct {
	mu         sync.Mutex
	byID       map[int]*models.Patient
	err        error
	lastFilter models.PatientFilter
}

func newFakePatients(patients ...*models.Patient) *fakePatients {
	f := &fakePatients{byID: make(map[int]*models.Patient)}
	for _, p := range patients {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePatients) Search(_ context.Context, filter models.PatientFilter) (*models.PatientPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Patient
	for _, p := range f.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &models.PatientPage{
		Patients:   out,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalCount: len(out),
		TotalPages: models.TotalPages(len(out), filter.PerPage),
	}, nil
}

func (f *fakePatients) GetByID(_ context.Context, id int) (*models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, queries.ErrPatientNotFound
}

func (f *fakePatients) Create(_ context.Context, p *models.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[p.ID]; ok {
		return queries.ErrDuplicatePatient
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakePatients) Update(_ context.Context, p *models.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return queries.ErrPatientNotFound
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakePatients) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return queries.ErrPatientNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePatients) Stats(_ context.Context) (*models.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var s models.DashboardStats
	var ageSum float64
	for _, p := range f.byID {
		s.TotalPatients++
		ageSum += p.Age
		if p.HasStroke() {
			s.StrokeCases++
		} else {
			s.NoStrokeCases++
		}
	}
	if s.TotalPatients > 0 {
		s.AvgAge = ageSum / float64(s.TotalPatients)
	}
	return &s, nil
}

func (f *fakePatients) Recent(_ context.Context, limit int) ([]*models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Patient
	for _, p := range f.byID {
		out = append(out, p)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePatients) Analytics(_ context.Context) (*models.Analytics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Analytics{
		GenderDistribution: []models.CountBucket{{Key: "Female", Count: 2}},
		AgeGroups:          []models.StrokeBucket{{Key: "60-80", Count: 2, StrokeCount: 1}},
	}, nil
}

type fakePredictor struct {
	result *prediction.Result
	err    error
	got    map[string]interface{}
}

func (f *fakePredictor) PredictRaw(_ context.Context, raw map[string]interface{}) (*prediction.Result, error) {
	f.got = raw
	return f.result, f.err
}

type fakeModel struct {
	ready   bool
	version string
}

func (f fakeModel) Ready() bool     { return f.ready }
func (f fakeModel) Version() string { return f.version }

type fakeDB struct {
	err error
}

func (f fakeDB) HealthCheck(context.Context) error { return f.err }

func (f fakeDB) GetVersion(context.Context) (string, error) {
	return "PostgreSQL 16.2", nil
}

func (f fakeDB) GetConnectionStats() sql.DBStats {
	return sql.DBStats{OpenConnections: 3, InUse: 1}
}

type fakeAudit struct {
	entries []models.AuditEntry
	limit   int
}

func (f *fakeAudit) GetRecent(_ context.Context, limit int) ([]models.AuditEntry, error) {
	f.limit = limit
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}
