package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

// DomainRepository loads AMY aggregates. Reads only: the engine never
// writes workshop data.
type DomainRepository struct {
	db DB
}

func NewDomainRepository(db DB) *DomainRepository {
	return &DomainRepository{db: db}
}

var _ repository.DomainRepository = (*DomainRepository)(nil)

const personColumns = `p.id, p.username, p.personal, p.middle, p.family, COALESCE(p.email, ''),
	p.password_hash, p.is_admin, p.is_active, p.created_at, p.updated_at`

func personDest(p *entity.Person) []any {
	return []any{&p.ID, &p.Username, &p.Personal, &p.Middle, &p.Family, &p.Email,
		&p.Password, &p.IsAdmin, &p.IsActive, &p.CreatedAt, &p.UpdatedAt}
}

func (r *DomainRepository) getPerson(ctx context.Context, where string, arg any) (*entity.Person, error) {
	var p entity.Person
	err := r.db.QueryRow(ctx, `SELECT `+personColumns+` FROM persons p WHERE `+where, arg).Scan(personDest(&p)...)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *DomainRepository) GetPerson(ctx context.Context, id int64) (*entity.Person, error) {
	return r.getPerson(ctx, "p.id = $1", id)
}

func (r *DomainRepository) GetPersonByEmail(ctx context.Context, email string) (*entity.Person, error) {
	return r.getPerson(ctx, "LOWER(p.email) = LOWER($1)", email)
}

func (r *DomainRepository) optionalPerson(ctx context.Context, id int64) (*entity.Person, error) {
	if id == 0 {
		return nil, nil
	}
	return r.GetPerson(ctx, id)
}

func (r *DomainRepository) GetOrganization(ctx context.Context, id int64) (*entity.Organization, error) {
	var o entity.Organization
	err := r.db.QueryRow(ctx, `SELECT id, domain, fullname FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Domain, &o.FullName)
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func organization(id int64, domain, fullname string) *entity.Organization {
	if id == 0 {
		return nil
	}
	return &entity.Organization{ID: id, Domain: domain, FullName: fullname}
}

// GetEvent loads the event with its organisations, tags, tasks (with
// persons, in creation order), recruitment and self-organised submission.
func (r *DomainRepository) GetEvent(ctx context.Context, id int64) (*entity.Event, error) {
	var (
		e                      entity.Event
		hostID, adminID        int64
		hostDomain, hostName   string
		adminDomain, adminName string
		assignedTo             int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT e.id, e.slug, e.start_date, e.end_date, e.url, e.membership_id, e.created_at,
			COALESCE(h.id, 0), COALESCE(h.domain, ''), COALESCE(h.fullname, ''),
			COALESCE(a.id, 0), COALESCE(a.domain, ''), COALESCE(a.fullname, ''),
			COALESCE(e.assigned_to_id, 0)
		FROM events e
		LEFT JOIN organizations h ON h.id = e.host_id
		LEFT JOIN organizations a ON a.id = e.administrator_id
		WHERE e.id = $1
	`, id).Scan(&e.ID, &e.Slug, &e.Start, &e.End, &e.URL, &e.MembershipID, &e.CreatedAt,
		&hostID, &hostDomain, &hostName, &adminID, &adminDomain, &adminName, &assignedTo)
	if err != nil {
		return nil, notFound(err)
	}
	e.Host = organization(hostID, hostDomain, hostName)
	e.Administrator = organization(adminID, adminDomain, adminName)
	if e.AssignedTo, err = r.optionalPerson(ctx, assignedTo); err != nil {
		return nil, err
	}
	if e.Tags, err = r.eventTags(ctx, id); err != nil {
		return nil, err
	}
	if e.Tasks, err = r.tasks(ctx, "tk.event_id = $1", id); err != nil {
		return nil, err
	}
	if e.Recruitment, err = r.recruitment(ctx, id); err != nil {
		return nil, err
	}
	if e.Submission, err = r.submission(ctx, "event_id = $1", id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &e, nil
}

func (r *DomainRepository) eventTags(ctx context.Context, eventID int64) ([]entity.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name FROM tags t
		JOIN event_tags et ON et.tag_id = t.id
		WHERE et.event_id = $1
		ORDER BY t.name
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entity.Tag{}
	for rows.Next() {
		var t entity.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *DomainRepository) tasks(ctx context.Context, where string, args ...any) ([]*entity.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tk.id, tk.event_id, tk.role, tk.membership_id, tk.created_at, `+personColumns+`
		FROM tasks tk
		JOIN persons p ON p.id = tk.person_id
		WHERE `+where+`
		ORDER BY tk.created_at, tk.id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.Task{}
	for rows.Next() {
		t := &entity.Task{Person: &entity.Person{}}
		dest := append([]any{&t.ID, &t.EventID, &t.Role, &t.MembershipID, &t.CreatedAt}, personDest(t.Person)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		t.PersonID = t.Person.ID
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *DomainRepository) recruitment(ctx context.Context, eventID int64) (*entity.InstructorRecruitment, error) {
	var rec entity.InstructorRecruitment
	err := r.db.QueryRow(ctx, `
		SELECT id, event_id, status, created_at FROM instructor_recruitments WHERE event_id = $1
	`, eventID).Scan(&rec.ID, &rec.EventID, &rec.Status, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *DomainRepository) submission(ctx context.Context, where string, arg any) (*entity.SelfOrganisedSubmission, error) {
	var (
		s          entity.SelfOrganisedSubmission
		assignedTo int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(event_id, 0), email, additional_contact, COALESCE(assigned_to_id, 0), created_at
		FROM self_organised_submissions WHERE `+where, arg).
		Scan(&s.ID, &s.EventID, &s.Email, &s.AdditionalContact, &assignedTo, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if s.AssignedTo, err = r.optionalPerson(ctx, assignedTo); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *DomainRepository) GetSubmission(ctx context.Context, id int64) (*entity.SelfOrganisedSubmission, error) {
	return r.submission(ctx, "id = $1", id)
}

func (r *DomainRepository) GetTask(ctx context.Context, id int64) (*entity.Task, error) {
	tasks, err := r.tasks(ctx, "tk.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, repository.ErrNotFound
	}
	return tasks[0], nil
}

func (r *DomainRepository) GetAward(ctx context.Context, id int64) (*entity.Award, error) {
	var a entity.Award
	err := r.db.QueryRow(ctx, `
		SELECT a.id, a.person_id, a.awarded_at, b.id, b.name, b.title
		FROM awards a
		JOIN badges b ON b.id = a.badge_id
		WHERE a.id = $1
	`, id).Scan(&a.ID, &a.PersonID, &a.AwardedAt, &a.Badge.ID, &a.Badge.Name, &a.Badge.Title)
	if err != nil {
		return nil, notFound(err)
	}
	if a.Person, err = r.GetPerson(ctx, a.PersonID); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetMembership loads contacts, the events under the membership and the
// learner tasks it paid for.
func (r *DomainRepository) GetMembership(ctx context.Context, id int64) (*entity.Membership, error) {
	var m entity.Membership
	err := r.db.QueryRow(ctx, `
		SELECT id, name, variant, agreement_start, agreement_end, rolled_from_membership_id, created_at
		FROM memberships WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Variant, &m.AgreementStart, &m.AgreementEnd, &m.RolledFromMembership, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if m.Tasks, err = r.membershipTasks(ctx, id); err != nil {
		return nil, err
	}
	eventIDs, err := r.ids(ctx, `SELECT id FROM events WHERE membership_id = $1 ORDER BY start_date, id`, id)
	if err != nil {
		return nil, err
	}
	m.Events = make([]*entity.Event, 0, len(eventIDs))
	for _, eid := range eventIDs {
		e, err := r.GetEvent(ctx, eid)
		if err != nil {
			return nil, err
		}
		m.Events = append(m.Events, e)
	}
	if m.TraineeTasks, err = r.tasks(ctx, "tk.membership_id = $1 AND tk.role = $2", id, entity.RoleLearner); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *DomainRepository) membershipTasks(ctx context.Context, membershipID int64) ([]*entity.MembershipTask, error) {
	rows, err := r.db.Query(ctx, `
		SELECT mt.id, mt.membership_id, mt.role, `+personColumns+`
		FROM membership_tasks mt
		JOIN persons p ON p.id = mt.person_id
		WHERE mt.membership_id = $1
		ORDER BY mt.id
	`, membershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.MembershipTask{}
	for rows.Next() {
		t := &entity.MembershipTask{Person: &entity.Person{}}
		dest := append([]any{&t.ID, &t.MembershipID, &t.Role}, personDest(t.Person)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		t.PersonID = t.Person.ID
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *DomainRepository) GetSignup(ctx context.Context, id int64) (*entity.InstructorRecruitmentSignup, error) {
	var (
		s       entity.InstructorRecruitmentSignup
		eventID int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT s.id, s.recruitment_id, r.event_id, s.person_id, s.state, s.created_at
		FROM instructor_recruitment_signups s
		JOIN instructor_recruitments r ON r.id = s.recruitment_id
		WHERE s.id = $1
	`, id).Scan(&s.ID, &s.RecruitmentID, &eventID, &s.PersonID, &s.State, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if s.Event, err = r.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if s.Person, err = r.GetPerson(ctx, s.PersonID); err != nil {
		return nil, err
	}
	return &s, nil
}

const progressColumns = `tp.id, tp.trainee_id, rq.id, rq.name, tp.state, tp.discarded,
	COALESCE(tp.event_id, 0), tp.created_at
	FROM training_progress tp
	JOIN training_requirements rq ON rq.id = tp.requirement_id`

func (r *DomainRepository) scanProgress(ctx context.Context, row pgx.Row) (*entity.TrainingProgress, error) {
	var (
		p       entity.TrainingProgress
		eventID int64
	)
	if err := row.Scan(&p.ID, &p.TraineeID, &p.Requirement.ID, &p.Requirement.Name, &p.State, &p.Discarded, &eventID, &p.CreatedAt); err != nil {
		return nil, err
	}
	if eventID != 0 {
		e, err := r.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		p.Event = e
	}
	return &p, nil
}

func (r *DomainRepository) GetTrainingProgress(ctx context.Context, id int64) (*entity.TrainingProgress, error) {
	p, err := r.scanProgress(ctx, r.db.QueryRow(ctx, `SELECT `+progressColumns+` WHERE tp.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *DomainRepository) TrainingProgress(ctx context.Context, personID int64) ([]*entity.TrainingProgress, error) {
	ids, err := r.ids(ctx, `SELECT id FROM training_progress WHERE trainee_id = $1 ORDER BY id`, personID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.TrainingProgress, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetTrainingProgress(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *DomainRepository) UpcomingEventIDs(ctx context.Context, from time.Time, withTag string, withoutTags []string) ([]int64, error) {
	return r.ids(ctx, `
		SELECT e.id FROM events e
		WHERE e.start_date >= $1
			AND ($2 = '' OR EXISTS (
				SELECT 1 FROM event_tags et JOIN tags t ON t.id = et.tag_id
				WHERE et.event_id = e.id AND t.name = $2))
			AND NOT EXISTS (
				SELECT 1 FROM event_tags et JOIN tags t ON t.id = et.tag_id
				WHERE et.event_id = e.id AND t.name = ANY($3))
		ORDER BY e.id
	`, from, withTag, nonNil(withoutTags))
}

func (r *DomainRepository) ids(ctx context.Context, sql string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
