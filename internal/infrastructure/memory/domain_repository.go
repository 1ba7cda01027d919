package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

// DomainRepository stores fully loaded aggregates by id. Callers put
// entities in with the Add methods; nothing is copied.
type DomainRepository struct {
	mu            sync.RWMutex
	persons       map[int64]*entity.Person
	organizations map[int64]*entity.Organization
	events        map[int64]*entity.Event
	tasks         map[int64]*entity.Task
	awards        map[int64]*entity.Award
	memberships   map[int64]*entity.Membership
	signups       map[int64]*entity.InstructorRecruitmentSignup
	submissions   map[int64]*entity.SelfOrganisedSubmission
	progress      map[int64]*entity.TrainingProgress
}

var _ repository.DomainRepository = (*DomainRepository)(nil)

func NewDomainRepository() *DomainRepository {
	return &DomainRepository{
		persons:       map[int64]*entity.Person{},
		organizations: map[int64]*entity.Organization{},
		events:        map[int64]*entity.Event{},
		tasks:         map[int64]*entity.Task{},
		awards:        map[int64]*entity.Award{},
		memberships:   map[int64]*entity.Membership{},
		signups:       map[int64]*entity.InstructorRecruitmentSignup{},
		submissions:   map[int64]*entity.SelfOrganisedSubmission{},
		progress:      map[int64]*entity.TrainingProgress{},
	}
}

func put[T any](mu *sync.RWMutex, m map[int64]T, id int64, v T) {
	mu.Lock()
	defer mu.Unlock()
	m[id] = v
}

func lookup[T any](mu *sync.RWMutex, m map[int64]*T, id int64) (*T, error) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (r *DomainRepository) AddPerson(p *entity.Person) { put(&r.mu, r.persons, p.ID, p) }
func (r *DomainRepository) AddOrganization(o *entity.Organization) {
	put(&r.mu, r.organizations, o.ID, o)
}

// AddEvent also indexes the event's tasks, organisations and persons.
func (r *DomainRepository) AddEvent(e *entity.Event) {
	put(&r.mu, r.events, e.ID, e)
	for _, t := range e.Tasks {
		r.AddTask(t)
	}
	for _, o := range []*entity.Organization{e.Host, e.Administrator} {
		if o != nil {
			r.AddOrganization(o)
		}
	}
	if e.AssignedTo != nil {
		r.AddPerson(e.AssignedTo)
	}
	if e.Submission != nil {
		r.AddSubmission(e.Submission)
	}
}

func (r *DomainRepository) AddTask(t *entity.Task) {
	put(&r.mu, r.tasks, t.ID, t)
	if t.Person != nil {
		r.AddPerson(t.Person)
	}
}

func (r *DomainRepository) AddAward(a *entity.Award) {
	put(&r.mu, r.awards, a.ID, a)
	if a.Person != nil {
		r.AddPerson(a.Person)
	}
}

func (r *DomainRepository) RemoveAward(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.awards, id)
}

func (r *DomainRepository) AddMembership(m *entity.Membership) {
	put(&r.mu, r.memberships, m.ID, m)
	for _, t := range m.Tasks {
		if t.Person != nil {
			r.AddPerson(t.Person)
		}
	}
	for _, t := range m.TraineeTasks {
		r.AddTask(t)
	}
}

func (r *DomainRepository) AddSignup(s *entity.InstructorRecruitmentSignup) {
	put(&r.mu, r.signups, s.ID, s)
	if s.Person != nil {
		r.AddPerson(s.Person)
	}
	if s.Event != nil {
		r.AddEvent(s.Event)
	}
}

func (r *DomainRepository) AddSubmission(s *entity.SelfOrganisedSubmission) {
	put(&r.mu, r.submissions, s.ID, s)
}

func (r *DomainRepository) AddTrainingProgress(p *entity.TrainingProgress) {
	put(&r.mu, r.progress, p.ID, p)
}

func (r *DomainRepository) GetPerson(_ context.Context, id int64) (*entity.Person, error) {
	return lookup(&r.mu, r.persons, id)
}

func (r *DomainRepository) GetPersonByEmail(_ context.Context, email string) (*entity.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.persons {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *DomainRepository) GetOrganization(_ context.Context, id int64) (*entity.Organization, error) {
	return lookup(&r.mu, r.organizations, id)
}

func (r *DomainRepository) GetEvent(_ context.Context, id int64) (*entity.Event, error) {
	return lookup(&r.mu, r.events, id)
}

func (r *DomainRepository) GetTask(_ context.Context, id int64) (*entity.Task, error) {
	return lookup(&r.mu, r.tasks, id)
}

func (r *DomainRepository) GetAward(_ context.Context, id int64) (*entity.Award, error) {
	return lookup(&r.mu, r.awards, id)
}

func (r *DomainRepository) GetMembership(_ context.Context, id int64) (*entity.Membership, error) {
	return lookup(&r.mu, r.memberships, id)
}

func (r *DomainRepository) GetSignup(_ context.Context, id int64) (*entity.InstructorRecruitmentSignup, error) {
	return lookup(&r.mu, r.signups, id)
}

func (r *DomainRepository) GetSubmission(_ context.Context, id int64) (*entity.SelfOrganisedSubmission, error) {
	return lookup(&r.mu, r.submissions, id)
}

func (r *DomainRepository) GetTrainingProgress(_ context.Context, id int64) (*entity.TrainingProgress, error) {
	return lookup(&r.mu, r.progress, id)
}

func (r *DomainRepository) TrainingProgress(_ context.Context, personID int64) ([]*entity.TrainingProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*entity.TrainingProgress{}
	for _, p := range r.progress {
		if p.TraineeID == personID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DomainRepository) UpcomingEventIDs(_ context.Context, from time.Time, withTag string, withoutTags []string) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int64
	for id, e := range r.events {
		if !e.StartsOnOrAfter(from) {
			continue
		}
		if withTag != "" && !e.HasTag(withTag) {
			continue
		}
		if e.HasTag(withoutTags...) {
			continue
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}
