package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/infrastructure/memory"
)

func TestScheduledEmailRepository(t *testing.T) {
	ctx := context.Background()
	tpl := &entity.EmailTemplate{Name: "Recruit helpers", Signal: "recruit_helpers", Active: true}
	templates := memory.NewEmailTemplateRepository(tpl)
	repo := memory.NewScheduledEmailRepository(templates)

	rel := entity.Relation{Kind: entity.RelationEvent, ID: 1}
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	later := &entity.ScheduledEmail{State: entity.StateScheduled, ScheduledAt: base.Add(2 * time.Hour), TemplateID: &tpl.ID, Relation: rel}
	sooner := &entity.ScheduledEmail{State: entity.StateFailed, ScheduledAt: base.Add(time.Hour), TemplateID: &tpl.ID, Relation: rel}
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, sooner))

	exists, err := repo.ExistsForRelation(ctx, "recruit_helpers", rel, entity.StateScheduled)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, _ = repo.ExistsForRelation(ctx, "ask_for_website", rel)
	assert.False(t, exists)

	all, err := repo.FindByRelation(ctx, "recruit_helpers", rel)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, later.ID, all[0].ID)
	assert.Equal(t, "Recruit helpers", all[0].Template.Name)

	due, err := repo.Due(ctx, repository.DueParams{
		Now:    base.Add(3 * time.Hour),
		States: []entity.ScheduledEmailState{entity.StateScheduled, entity.StateFailed},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, sooner.ID, due[0].ID)

	failed := entity.StateFailed
	require.NoError(t, repo.AddLog(ctx, &entity.ScheduledEmailLog{ScheduledEmailID: sooner.ID, StateAfter: &failed}))
	due, err = repo.Due(ctx, repository.DueParams{
		Now:         base.Add(3 * time.Hour),
		States:      []entity.ScheduledEmailState{entity.StateScheduled, entity.StateFailed},
		MaxFailures: 0,
	})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, later.ID, due[0].ID)

	page, total, err := repo.List(ctx, repository.ListParams{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, sooner.ID, page[0].ID)

	later.State = entity.StateCancelled
	require.NoError(t, repo.Update(ctx, later))
	exists, _ = repo.ExistsForRelation(ctx, "recruit_helpers", rel, entity.StateScheduled)
	assert.False(t, exists)

	assert.ErrorIs(t, repo.Update(ctx, &entity.ScheduledEmail{}), repository.ErrNotFound)
}
