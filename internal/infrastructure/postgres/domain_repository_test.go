package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/infrastructure/postgres"
)

var personCols = []string{"id", "username", "personal", "middle", "family", "email", "password_hash", "is_admin", "is_active", "created_at", "updated_at"}

func TestDomainRepository_GetTask(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewDomainRepository(mock)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cols := append([]string{"id", "event_id", "role", "membership_id", "created_at"}, personCols...)

	mock.ExpectQuery("FROM tasks tk").
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			int64(12), int64(1), "instructor", nil, at,
			int64(3), "granger_h", "Hermione", "", "Granger", "hg@magic.uk", "", false, true, at, at,
		))

	task, err := repo.GetTask(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, task.Role)
	assert.Equal(t, int64(3), task.PersonID)
	assert.Equal(t, "Hermione Granger", task.Person.FullName())
	assert.Nil(t, task.MembershipID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDomainRepository_GetTaskNotFound(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewDomainRepository(mock)
	cols := append([]string{"id", "event_id", "role", "membership_id", "created_at"}, personCols...)

	mock.ExpectQuery("FROM tasks tk").WithArgs(int64(99)).WillReturnRows(pgxmock.NewRows(cols))

	_, err := repo.GetTask(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDomainRepository_UpcomingEventIDs(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewDomainRepository(mock)
	from := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM events e").
		WithArgs(from, entity.TagSWC, entity.InactiveTagNames).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(5)))

	ids, err := repo.UpcomingEventIDs(context.Background(), from, entity.TagSWC, entity.InactiveTagNames)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDomainRepository_GetAward(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewDomainRepository(mock)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM awards a").
		WithArgs(int64(21)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "person_id", "awarded_at", "badge_id", "name", "title"}).
			AddRow(int64(21), int64(5), at, int64(1), "instructor", "Certified Instructor"))
	mock.ExpectQuery("FROM persons p").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(personCols).
			AddRow(int64(5), "lovegood_l", "Luna", "", "Lovegood", "luna@magic.uk", "", false, true, at, at))

	award, err := repo.GetAward(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, entity.BadgeInstructor, award.Badge.Name)
	assert.Equal(t, "luna@magic.uk", award.Person.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
