package service

import (
	"context"

	"bondpulse/internal/domain/models"
	"bondpulse/internal/storage"
)

// SnapshotService defines business logic for reading published datasets.
type SnapshotService interface {
	GetLatest(ctx context.Context, limit int) (models.FinalDataset, error)
}

type snapshotService struct {
	repo storage.SnapshotsRepository
}

func NewSnapshotService(repo storage.SnapshotsRepository) SnapshotService {
	return &snapshotService{repo: repo}
}

func (s *snapshotService) GetLatest(_ context.Context, limit int) (models.FinalDataset, error) {
	return s.repo.LatestSnapshot(limit)
}
