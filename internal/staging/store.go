package staging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

// Store holds parsed cruise uploads between parse and confirm. Entries live
// in the staging_uploads table so a restart does not lose pending work;
// each entry expires after the configured TTL.
type Store struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewStore(db *storage.DB, cfg config.Config, log *zap.Logger) *Store {
	return &Store{db: db, cfg: cfg, log: log}
}

// Put stages a parsed upload and returns its opaque id.
func (s *Store) Put(fileName string, orders []internal.CruiseOrder) (internal.StagedUpload, error) {
	totalProducts := 0
	for _, o := range orders {
		totalProducts += len(o.Items)
	}

	upload := internal.StagedUpload{
		UploadID:      uuid.NewString(),
		FileName:      fileName,
		TotalOrders:   len(orders),
		TotalProducts: totalProducts,
		Orders:        orders,
		CreatedAt:     time.Now().UTC(),
	}
	expiresAt := upload.CreatedAt.Add(time.Duration(s.cfg.StagingTTLHours) * time.Hour)

	if err := s.db.PutStagedUpload(upload, expiresAt); err != nil {
		return internal.StagedUpload{}, err
	}
	return upload, nil
}

func (s *Store) Get(uploadID string) (*internal.StagedUpload, error) {
	return s.db.GetStagedUpload(uploadID)
}

func (s *Store) List() ([]internal.StagedUpload, error) {
	return s.db.ListStagedUploads()
}

func (s *Store) Delete(uploadID string) (bool, error) {
	return s.db.DeleteStagedUpload(uploadID)
}

// Sweep drops every expired upload and reports how many went.
func (s *Store) Sweep() (int64, error) {
	return s.db.SweepStagedUploads(time.Now().UTC())
}

// Run sweeps on an interval until the context is cancelled.
func (s *Store) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.StagingSweepIntervalS) * time.Second
	for {
		if n, err := s.Sweep(); err != nil {
			s.log.Warn("staging sweep failed", zap.Error(err))
		} else if n > 0 {
			s.log.Info("staging sweep", zap.Int64("expired", n))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
