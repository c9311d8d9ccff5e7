package service

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
	"github.com/tzlun5274/mes-system/internal/workdate"
)

// SeedResult counts what Seed wrote.
type SeedResult struct {
	WorkOrders int `yaml:"workorders"`
	Operators  int `yaml:"operators"`
	Processes  int `yaml:"processes"`
	Equipment  int `yaml:"equipment"`
}

// DecodeSeed reads a YAML seed catalog.
func DecodeSeed(r io.Reader) (*model.SeedCatalog, error) {
	var seed model.SeedCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &seed, nil
}

// Seed upserts every entry of a seed catalog in one transaction.
func (s *CatalogService) Seed(ctx context.Context, seed *model.SeedCatalog) (*SeedResult, error) {
	workOrders := make([]model.WorkOrder, 0, len(seed.WorkOrders))
	for _, w := range seed.WorkOrders {
		wo := model.WorkOrder{
			WorkOrderID:     w.WorkOrderID,
			CompanyName:     w.CompanyName,
			ProductID:       w.ProductID,
			PlannedQuantity: w.PlannedQuantity,
			Status:          model.WorkOrderStatus(w.Status),
		}
		if w.PlannedStartDate != "" {
			date, err := workdate.Parse(w.PlannedStartDate)
			if err != nil {
				return nil, fmt.Errorf("%w: %s planned start date: %v", ErrInvalidWorkOrder, w.WorkOrderID, err)
			}
			wo.PlannedStartDate = date
		}
		workOrders = append(workOrders, wo)
	}

	result := &SeedResult{
		Operators: len(uniqueNames(seed.Operators)),
		Processes: len(uniqueNames(seed.Processes)),
		Equipment: len(uniqueNames(seed.Equipment)),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := NewCatalogService(tx)
		n, err := txs.UpsertWorkOrders(ctx, workOrders)
		if err != nil {
			return err
		}
		result.WorkOrders = n
		if err := txs.UpsertOperators(ctx, seed.Operators); err != nil {
			return err
		}
		if err := txs.UpsertProcesses(ctx, seed.Processes); err != nil {
			return err
		}
		return txs.UpsertEquipment(ctx, seed.Equipment)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
