package masterdata

import "context"

// Service wraps the repository with the lookups other modules consume.
type Service struct {
	repo *Repository
}

// NewService builds Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Item returns one item.
func (s *Service) Item(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ItemExists reports whether the item id is known.
func (s *Service) ItemExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.ItemExists(ctx, id)
}

// WarehouseExists reports whether the warehouse id is known.
func (s *Service) WarehouseExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.WarehouseExists(ctx, id)
}

// Warehouse returns one warehouse.
func (s *Service) Warehouse(ctx context.Context, id int64) (Warehouse, error) {
	return s.repo.GetWarehouse(ctx, id)
}

// Batch returns one batch.
func (s *Service) Batch(ctx context.Context, id int64) (Batch, error) {
	return s.repo.GetBatch(ctx, id)
}

// Warehouses lists all warehouses.
func (s *Service) Warehouses(ctx context.Context) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx)
}
