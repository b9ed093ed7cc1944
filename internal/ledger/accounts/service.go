package accounts

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListForOrganization(ctx context.Context, organizationID string) ([]Account, error) {
	return s.repo.ListForOrganization(ctx, organizationID)
}
