package commands

import (
	"context"
	"fmt"

	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/validation"
)

// ListDemandsCommand lists demands ordered by delivery date
type ListDemandsCommand struct {
	serviceCommand
	ClientID string
	Status   string
}

func (c *ListDemandsCommand) GetName() string        { return "demand-list" }
func (c *ListDemandsCommand) GetDescription() string { return "List demands by delivery date" }

func (c *ListDemandsCommand) SetParameters(params validation.Params) error {
	c.ClientID = params.String("client_id")
	c.Status = params.String("status")
	return nil
}

func (c *ListDemandsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	var (
		demands []*models.Demand
		err     error
	)
	if c.Status != "" {
		demands, err = c.service.DemandsByStatus(ctx, models.NormalizeDemandStatus(c.Status))
	} else {
		demands, err = c.service.ListDemands(ctx)
	}
	if err != nil {
		return nil, err
	}

	if c.ClientID != "" {
		filtered := []*models.Demand{}
		for _, d := range demands {
			if d.ClientID == c.ClientID {
				filtered = append(filtered, d)
			}
		}
		demands = filtered
	}
	return ok(demands, "Found %d demands", len(demands)), nil
}

// GetDemandCommand retrieves one demand
type GetDemandCommand struct {
	serviceCommand
	ID string
}

func (c *GetDemandCommand) GetName() string        { return "demand-get" }
func (c *GetDemandCommand) GetDescription() string { return "Get a demand and its checklist" }

func (c *GetDemandCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *GetDemandCommand) Execute(ctx context.Context) (*CommandResult, error) {
	d, err := c.service.GetDemand(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	done, total := d.Progress()
	return ok(d, "Demand '%s' (%d/%d tasks done)", d.Demanda, done, total), nil
}

// SaveDemandCommand creates a demand, or replaces one when Update is set
type SaveDemandCommand struct {
	serviceCommand
	Update bool
	Demand *models.Demand
}

func (c *SaveDemandCommand) GetName() string {
	if c.Update {
		return "demand-update"
	}
	return "demand-create"
}

func (c *SaveDemandCommand) GetDescription() string {
	if c.Update {
		return "Update a demand"
	}
	return "Register a client demand"
}

func (c *SaveDemandCommand) SetParameters(params validation.Params) error {
	tasks, err := parseTasks(params["tarefas"])
	if err != nil {
		return err
	}
	c.Demand = &models.Demand{
		ID:          params.String("id"),
		ClientID:    params.String("client_id"),
		Demanda:     params.String("demanda"),
		Descricao:   params.String("descricao"),
		DataPedido:  params.Time("data_pedido"),
		DataEntrega: params.Time("data_entrega"),
		Responsavel: params.String("responsavel"),
		Status:      models.DemandStatus(params.String("status")),
		Prioridade:  models.Priority(params.String("prioridade")),
		Tarefas:     tasks,
	}
	return nil
}

// parseTasks accepts task titles or {id, titulo, concluida} objects
func parseTasks(raw interface{}) ([]models.TaskItem, error) {
	items, _ := raw.([]interface{})
	tasks := make([]models.TaskItem, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			tasks = append(tasks, models.TaskItem{Titulo: v})
		case map[string]interface{}:
			task := models.TaskItem{}
			task.ID, _ = v["id"].(string)
			task.Titulo, _ = v["titulo"].(string)
			task.Concluida, _ = v["concluida"].(bool)
			tasks = append(tasks, task)
		default:
			return nil, fmt.Errorf("tarefas[%d]: expected a title or a task object", i)
		}
	}
	return tasks, nil
}

func (c *SaveDemandCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if c.Update {
		if err := c.service.UpdateDemand(ctx, c.Demand); err != nil {
			return nil, err
		}
		return ok(c.Demand, "Updated demand '%s'", c.Demand.Demanda), nil
	}
	if err := c.service.CreateDemand(ctx, c.Demand); err != nil {
		return nil, err
	}
	return ok(c.Demand, "Created demand '%s'", c.Demand.Demanda), nil
}

// DeleteDemandCommand removes a demand
type DeleteDemandCommand struct {
	serviceCommand
	ID string
}

func (c *DeleteDemandCommand) GetName() string        { return "demand-delete" }
func (c *DeleteDemandCommand) GetDescription() string { return "Delete a demand" }

func (c *DeleteDemandCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *DeleteDemandCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.DeleteDemand(ctx, c.ID); err != nil {
		return nil, err
	}
	return ok(map[string]string{"id": c.ID}, "Deleted demand %s", c.ID), nil
}

// AddTaskCommand appends a checklist item to a demand
type AddTaskCommand struct {
	serviceCommand
	DemandID string
	Titulo   string
}

func (c *AddTaskCommand) GetName() string        { return "demand-add-task" }
func (c *AddTaskCommand) GetDescription() string { return "Add a checklist item to a demand" }

func (c *AddTaskCommand) SetParameters(params validation.Params) error {
	c.DemandID = params.String("id")
	c.Titulo = params.String("titulo")
	return nil
}

func (c *AddTaskCommand) Execute(ctx context.Context) (*CommandResult, error) {
	d, err := c.service.AddTask(ctx, c.DemandID, c.Titulo)
	if err != nil {
		return nil, err
	}
	return ok(d, "Added task '%s'", c.Titulo), nil
}

// ToggleTaskCommand flips a checklist item
type ToggleTaskCommand struct {
	serviceCommand
	DemandID string
	TaskID   string
}

func (c *ToggleTaskCommand) GetName() string        { return "demand-toggle-task" }
func (c *ToggleTaskCommand) GetDescription() string { return "Mark a checklist item done or open" }

func (c *ToggleTaskCommand) SetParameters(params validation.Params) error {
	c.DemandID = params.String("id")
	c.TaskID = params.String("task_id")
	return nil
}

func (c *ToggleTaskCommand) Execute(ctx context.Context) (*CommandResult, error) {
	d, err := c.service.ToggleTask(ctx, c.DemandID, c.TaskID)
	if err != nil {
		return nil, err
	}
	done, total := d.Progress()
	return ok(d, "%d/%d tasks done", done, total), nil
}

// SetDemandStatusCommand moves a demand to another workflow state
type SetDemandStatusCommand struct {
	serviceCommand
	DemandID string
	Status   models.DemandStatus
}

func (c *SetDemandStatusCommand) GetName() string        { return "demand-status" }
func (c *SetDemandStatusCommand) GetDescription() string { return "Change the status of a demand" }

func (c *SetDemandStatusCommand) SetParameters(params validation.Params) error {
	c.DemandID = params.String("id")
	c.Status = models.DemandStatus(params.String("status"))
	return nil
}

func (c *SetDemandStatusCommand) Execute(ctx context.Context) (*CommandResult, error) {
	d, err := c.service.SetDemandStatus(ctx, c.DemandID, c.Status)
	if err != nil {
		return nil, err
	}
	return ok(d, "Demand '%s' is now %s", d.Demanda, d.Status), nil
}
