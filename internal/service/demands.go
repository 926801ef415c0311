package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
)

// ListDemands returns every demand ordered by delivery date, earliest first
func (s *Service) ListDemands(ctx context.Context) ([]*models.Demand, error) {
	demands, err := s.store.ListDemands(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(demands, func(i, j int) bool {
		return demands[i].DataEntrega.Before(demands[j].DataEntrega)
	})
	return demands, nil
}

func (s *Service) GetDemand(ctx context.Context, id string) (*models.Demand, error) {
	return s.store.GetDemand(ctx, id)
}

// DemandsByStatus filters demands by workflow state
func (s *Service) DemandsByStatus(ctx context.Context, status models.DemandStatus) ([]*models.Demand, error) {
	all, err := s.ListDemands(ctx)
	if err != nil {
		return nil, err
	}
	out := []*models.Demand{}
	for _, d := range all {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func validateDemand(d *models.Demand) error {
	if strings.TrimSpace(d.Demanda) == "" {
		return errors.ValidationError("demanda is required").WithContext("field", "demanda")
	}
	if d.DataEntrega.IsZero() {
		return errors.ValidationError("data de entrega is required").WithContext("field", "dataEntrega")
	}
	for _, t := range d.Tarefas {
		if strings.TrimSpace(t.Titulo) == "" {
			return errors.ValidationError("task title is required").WithContext("field", "tarefas")
		}
	}
	return nil
}

func assignTaskIDs(d *models.Demand) {
	for i := range d.Tarefas {
		if d.Tarefas[i].ID == "" {
			d.Tarefas[i].ID = newID()
		}
	}
}

// CreateDemand stores a new demand. The request date defaults to today.
func (s *Service) CreateDemand(ctx context.Context, d *models.Demand) error {
	d.Normalize()
	if err := validateDemand(d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	now := s.now()
	if d.DataPedido.IsZero() {
		d.DataPedido = now
	}
	assignTaskIDs(d)
	d.ClientName = s.clientName(ctx, d.ClientID)
	if d.ClientName == "" {
		d.ClientName = models.UnknownClientName
	}
	d.CreatedAt = now

	if err := s.store.CreateDemand(ctx, d); err != nil {
		return err
	}
	s.log.Info("demand created", "id", d.ID, "status", d.Status, "tasks", len(d.Tarefas))
	return nil
}

func (s *Service) UpdateDemand(ctx context.Context, d *models.Demand) error {
	d.Normalize()
	if err := validateDemand(d); err != nil {
		return err
	}
	existing, err := s.store.GetDemand(ctx, d.ID)
	if err != nil {
		return err
	}
	assignTaskIDs(d)
	d.CreatedAt = existing.CreatedAt
	d.ClientName = existing.ClientName
	if d.ClientID != "" {
		if name := s.clientName(ctx, d.ClientID); name != models.UnknownClientName {
			d.ClientName = name
		}
	}
	return s.store.UpdateDemand(ctx, d)
}

func (s *Service) DeleteDemand(ctx context.Context, id string) error {
	return s.store.DeleteDemand(ctx, id)
}

// ToggleTask flips one checklist item and returns the updated demand
func (s *Service) ToggleTask(ctx context.Context, demandID, taskID string) (*models.Demand, error) {
	d, err := s.store.GetDemand(ctx, demandID)
	if err != nil {
		return nil, err
	}
	if !d.ToggleTask(taskID) {
		return nil, errors.NotFoundError("task").WithContext("id", taskID).WithContext("demand", demandID)
	}
	if err := s.store.UpdateDemand(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddTask appends an open checklist item and returns the updated demand
func (s *Service) AddTask(ctx context.Context, demandID, titulo string) (*models.Demand, error) {
	titulo = strings.TrimSpace(titulo)
	if titulo == "" {
		return nil, errors.ValidationError("task title is required").WithContext("field", "titulo")
	}
	d, err := s.store.GetDemand(ctx, demandID)
	if err != nil {
		return nil, err
	}
	d.Tarefas = append(d.Tarefas, models.TaskItem{ID: newID(), Titulo: titulo})
	if err := s.store.UpdateDemand(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetDemandStatus moves a demand to another workflow state
func (s *Service) SetDemandStatus(ctx context.Context, demandID string, status models.DemandStatus) (*models.Demand, error) {
	valid := false
	for _, st := range models.DemandStatuses {
		if st == status {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.ValidationError(fmt.Sprintf("invalid status %q", status)).WithContext("field", "status")
	}

	d, err := s.store.GetDemand(ctx, demandID)
	if err != nil {
		return nil, err
	}
	d.Status = status
	if err := s.store.UpdateDemand(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
