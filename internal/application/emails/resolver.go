package emails

import (
	"context"
	"fmt"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

// RepositoryResolver resolves api URIs through the domain repository.
type RepositoryResolver struct {
	Repo repository.DomainRepository
}

func (r RepositoryResolver) Resolve(ctx context.Context, model string, pk int64) (entity.Model, error) {
	switch model {
	case string(entity.RelationPerson):
		return wrap(r.Repo.GetPerson(ctx, pk))
	case string(entity.RelationEvent):
		return wrap(r.Repo.GetEvent(ctx, pk))
	case string(entity.RelationAward):
		return wrap(r.Repo.GetAward(ctx, pk))
	case string(entity.RelationMembership):
		return wrap(r.Repo.GetMembership(ctx, pk))
	case string(entity.RelationTask):
		return wrap(r.Repo.GetTask(ctx, pk))
	case string(entity.RelationSignup):
		return wrap(r.Repo.GetSignup(ctx, pk))
	case string(entity.RelationSelfOrganisedSubmission):
		return wrap(r.Repo.GetSubmission(ctx, pk))
	case "organization":
		return wrap(r.Repo.GetOrganization(ctx, pk))
	case "trainingprogress":
		return wrap(r.Repo.GetTrainingProgress(ctx, pk))
	default:
		return nil, fmt.Errorf("unknown model %q", model)
	}
}

// wrap keeps a nil pointer from becoming a non-nil interface.
func wrap[M entity.Model](m M, err error) (entity.Model, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
