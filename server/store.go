package server

import (
	"context"

	"github.com/sevaops/bskdash/dataset"
)

// DataReader is the read contract the entity handlers are written against.
// dataset.SQLStore satisfies it directly; SnapshotReader adapts the cached
// flat-file snapshot to the same shape. A negative limit means unbounded.
type DataReader interface {
	ListServices(ctx context.Context, skip, limit int) ([]dataset.Service, error)
	GetServiceByID(ctx context.Context, id int64) (dataset.Service, error)

	ListCenters(ctx context.Context, skip, limit int) ([]dataset.TrainingCenter, error)
	GetCenterByCode(ctx context.Context, code string) (dataset.TrainingCenter, error)

	ListAgents(ctx context.Context, skip, limit int) ([]dataset.Agent, error)
	GetAgentByID(ctx context.Context, id int64) (dataset.Agent, error)

	ListProvisions(ctx context.Context, skip, limit int) ([]dataset.Provision, error)
	GetProvisionByCustomer(ctx context.Context, customerID string) (dataset.Provision, error)
}

// SnapshotReader serves entity reads from the dataset cache. Every call
// works against one immutable snapshot, filled on first access.
type SnapshotReader struct {
	cache *dataset.Cache
}

// NewSnapshotReader creates a DataReader over the cache.
func NewSnapshotReader(cache *dataset.Cache) *SnapshotReader {
	return &SnapshotReader{cache: cache}
}

func (r *SnapshotReader) ListServices(ctx context.Context, skip, limit int) ([]dataset.Service, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ListServices(skip, limit), nil
}

func (r *SnapshotReader) GetServiceByID(ctx context.Context, id int64) (dataset.Service, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return dataset.Service{}, err
	}
	return snap.ServiceByID(id)
}

func (r *SnapshotReader) ListCenters(ctx context.Context, skip, limit int) ([]dataset.TrainingCenter, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ListCenters(skip, limit), nil
}

func (r *SnapshotReader) GetCenterByCode(ctx context.Context, code string) (dataset.TrainingCenter, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return dataset.TrainingCenter{}, err
	}
	return snap.CenterByCode(code)
}

func (r *SnapshotReader) ListAgents(ctx context.Context, skip, limit int) ([]dataset.Agent, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ListAgents(skip, limit), nil
}

func (r *SnapshotReader) GetAgentByID(ctx context.Context, id int64) (dataset.Agent, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return dataset.Agent{}, err
	}
	return snap.AgentByID(id)
}

func (r *SnapshotReader) ListProvisions(ctx context.Context, skip, limit int) ([]dataset.Provision, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ListProvisions(skip, limit), nil
}

func (r *SnapshotReader) GetProvisionByCustomer(ctx context.Context, customerID string) (dataset.Provision, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return dataset.Provision{}, err
	}
	return snap.ProvisionByCustomer(customerID)
}
