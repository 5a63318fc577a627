package service

import (
	"context"
	"sync"
	"time"

	"visit_portal/internal/model"

	"github.com/google/uuid"
)

// In-memory repository fakes. All of them are safe for concurrent use so the
// invariant tests can hammer them from goroutines the way pgx row locks are
// hammered in production.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == NormalizeEmail(email) {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return model.ErrUserNotFound
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *session
	r.sessions[session.ID] = &s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(time.Now()) {
			delete(r.sessions, id)
		}
	}
	return nil
}

type fakeResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.ResetToken // keyed by email
}

func newFakeResetTokenRepo() *fakeResetTokenRepo {
	return &fakeResetTokenRepo{tokens: make(map[string]*model.ResetToken)}
}

func (r *fakeResetTokenRepo) Replace(_ context.Context, token *model.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *token
	r.tokens[token.Email] = &t
	return nil
}

func (r *fakeResetTokenRepo) Find(_ context.Context, email, token string) (*model.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[email]
	if !ok || t.Token != token || !t.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeResetTokenRepo) Delete(_ context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[email]; ok && t.Token == token {
		delete(r.tokens, email)
	}
	return nil
}

func (r *fakeResetTokenRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, t := range r.tokens {
		if !t.ExpiresAt.After(time.Now()) {
			delete(r.tokens, email)
		}
	}
	return nil
}

type fakeLoginAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*model.LoginAttempt
}

func newFakeLoginAttemptRepo() *fakeLoginAttemptRepo {
	return &fakeLoginAttemptRepo{attempts: make(map[string]*model.LoginAttempt)}
}

func (r *fakeLoginAttemptRepo) Find(_ context.Context, email string) (*model.LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.attempts[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeLoginAttemptRepo) Save(_ context.Context, attempt *model.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := *attempt
	r.attempts[attempt.Email] = &a
	return nil
}

func (r *fakeLoginAttemptRepo) Clear(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, email)
	return nil
}

type fakeHospitalRepo struct {
	mu        sync.Mutex
	hospitals map[uuid.UUID]*model.Hospital
}

func newFakeHospitalRepo() *fakeHospitalRepo {
	return &fakeHospitalRepo{hospitals: make(map[uuid.UUID]*model.Hospital)}
}

func (r *fakeHospitalRepo) Create(_ context.Context, hospital *model.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := *hospital
	h.PhotographerIDs = append([]uuid.UUID{}, hospital.PhotographerIDs...)
	r.hospitals[hospital.ID] = &h
	return nil
}

func (r *fakeHospitalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[id]
	if !ok {
		return nil, nil
	}
	cp := *h
	cp.PhotographerIDs = append([]uuid.UUID{}, h.PhotographerIDs...)
	return &cp, nil
}

func (r *fakeHospitalRepo) FindAll(_ context.Context) ([]model.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hospitals := make([]model.Hospital, 0, len(r.hospitals))
	for _, h := range r.hospitals {
		cp := *h
		cp.PhotographerIDs = append([]uuid.UUID{}, h.PhotographerIDs...)
		hospitals = append(hospitals, cp)
	}
	return hospitals, nil
}

func (r *fakeHospitalRepo) Update(_ context.Context, hospital *model.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.hospitals[hospital.ID]
	if !ok {
		return model.ErrHospitalNotFound
	}
	existing.Name = hospital.Name
	existing.State = hospital.State
	existing.Address = hospital.Address
	return nil
}

func (r *fakeHospitalRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hospitals[id]; !ok {
		return model.ErrHospitalNotFound
	}
	delete(r.hospitals, id)
	return nil
}

func (r *fakeHospitalRepo) AddPhotographer(_ context.Context, hospitalID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return model.ErrHospitalNotFound
	}
	for _, id := range h.PhotographerIDs {
		if id == userID {
			return nil
		}
	}
	h.PhotographerIDs = append(h.PhotographerIDs, userID)
	return nil
}

func (r *fakeHospitalRepo) RemovePhotographer(_ context.Context, hospitalID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return model.ErrHospitalNotFound
	}
	filtered := h.PhotographerIDs[:0]
	for _, id := range h.PhotographerIDs {
		if id != userID {
			filtered = append(filtered, id)
		}
	}
	h.PhotographerIDs = filtered
	return nil
}

func (r *fakeHospitalRepo) isRosterMember(hospitalID, userID uuid.UUID) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return false, false
	}
	for _, id := range h.PhotographerIDs {
		if id == userID {
			return true, true
		}
	}
	return true, false
}

// fakeVisitRepo mirrors the transactional guarantees of the real repository:
// every mutating domain operation runs under a single lock.
type fakeVisitRepo struct {
	mu        sync.Mutex
	visits    map[uuid.UUID]*model.Visit
	hospitals *fakeHospitalRepo
}

func newFakeVisitRepo(hospitals *fakeHospitalRepo) *fakeVisitRepo {
	return &fakeVisitRepo{visits: make(map[uuid.UUID]*model.Visit), hospitals: hospitals}
}

func copyVisit(v *model.Visit) *model.Visit {
	cp := *v
	cp.EnrolledIDs = append([]uuid.UUID{}, v.EnrolledIDs...)
	cp.Cancellations = append([]model.EnrollmentCancellation{}, v.Cancellations...)
	return &cp
}

func (r *fakeVisitRepo) Create(_ context.Context, visit *model.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits[visit.ID] = copyVisit(visit)
	return nil
}

func (r *fakeVisitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[id]
	if !ok {
		return nil, nil
	}
	return copyVisit(v), nil
}

func (r *fakeVisitRepo) FindAll(_ context.Context) ([]model.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	visits := make([]model.Visit, 0, len(r.visits))
	for _, v := range r.visits {
		visits = append(visits, *copyVisit(v))
	}
	return visits, nil
}

func (r *fakeVisitRepo) Update(_ context.Context, visit *model.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.visits[visit.ID]
	if !ok {
		return model.ErrVisitNotFound
	}
	existing.Title = visit.Title
	existing.HospitalID = visit.HospitalID
	existing.HospitalName = visit.HospitalName
	existing.Description = visit.Description
	existing.Date = visit.Date
	existing.Time = visit.Time
	existing.Capacity = visit.Capacity
	return nil
}

func (r *fakeVisitRepo) Cancel(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[id]
	if !ok {
		return model.ErrVisitNotFound
	}
	v.Status = model.VisitStatusCancelled
	return nil
}

func (r *fakeVisitRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.visits[id]; !ok {
		return model.ErrVisitNotFound
	}
	delete(r.visits, id)
	return nil
}

func (r *fakeVisitRepo) Enroll(_ context.Context, visitID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[visitID]
	if !ok {
		return model.ErrVisitNotFound
	}
	if v.Status == model.VisitStatusCancelled {
		return model.ErrVisitCancelled
	}
	for _, id := range v.EnrolledIDs {
		if id == userID {
			return model.ErrAlreadyEnrolled
		}
	}
	if len(v.EnrolledIDs) >= v.Capacity {
		return model.ErrNoSeats
	}
	v.EnrolledIDs = append(v.EnrolledIDs, userID)
	return nil
}

func (r *fakeVisitRepo) CancelEnrollment(_ context.Context, visitID, userID uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[visitID]
	if !ok {
		return model.ErrVisitNotFound
	}
	filtered := v.EnrolledIDs[:0]
	for _, id := range v.EnrolledIDs {
		if id != userID {
			filtered = append(filtered, id)
		}
	}
	v.EnrolledIDs = filtered
	if reason != "" {
		v.Cancellations = append(v.Cancellations, model.EnrollmentCancellation{
			UserID:    userID,
			Reason:    reason,
			CreatedAt: time.Now(),
		})
	}
	return nil
}

func (r *fakeVisitRepo) ClaimPhotographer(_ context.Context, visitID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[visitID]
	if !ok {
		return model.ErrVisitNotFound
	}
	if v.Status == model.VisitStatusCancelled {
		return model.ErrVisitCancelled
	}
	hospitalExists, member := r.hospitals.isRosterMember(v.HospitalID, userID)
	if !hospitalExists {
		return model.ErrHospitalNotFound
	}
	if !member {
		return model.ErrNotRosterMember
	}
	if v.PhotographerID != nil {
		return model.ErrSlotTaken
	}
	id := userID
	v.PhotographerID = &id
	return nil
}

func (r *fakeVisitRepo) ReleasePhotographer(_ context.Context, visitID, userID uuid.UUID, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[visitID]
	if !ok {
		return model.ErrVisitNotFound
	}
	if !isAdmin && (v.PhotographerID == nil || *v.PhotographerID != userID) {
		return model.ErrNotSlotHolder
	}
	v.PhotographerID = nil
	return nil
}
