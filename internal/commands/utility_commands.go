// Package commands/utility_commands implements the summary and health commands.
//
// COMMAND IMPLEMENTATIONS:
// - DashboardCommand: revenue, goal progress, top clients and open work
// - NotificationsCommand: deadline and payment alerts for the current session
// - HealthCheckCommand: store reachability for monitoring and debugging
//
// These commands take no parameters; what they report depends on the session
// carried by the context (local agency store or remote database).
package commands

import (
	"context"
	"time"

	"github.com/dpshade/pocket-crm/internal/session"
	"github.com/dpshade/pocket-crm/internal/storage"
)

// DashboardCommand summarizes the agency
type DashboardCommand struct {
	serviceCommand
}

func (c *DashboardCommand) GetName() string { return "dashboard" }
func (c *DashboardCommand) GetDescription() string {
	return "Revenue, goal progress, top clients and open work"
}

func (c *DashboardCommand) Execute(ctx context.Context) (*CommandResult, error) {
	d, err := c.service.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return ok(d, "%.0f%% of the monthly goal", d.MetaPercent), nil
}

// NotificationsCommand lists deadline and payment alerts
type NotificationsCommand struct {
	serviceCommand
}

func (c *NotificationsCommand) GetName() string { return "notifications" }
func (c *NotificationsCommand) GetDescription() string {
	return "Upcoming deadlines and pending payments"
}

func (c *NotificationsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	list, err := c.service.Notifications(ctx)
	if err != nil {
		return nil, err
	}
	return ok(list, "%d notifications", len(list)), nil
}

// HealthCheckCommand provides system health information
type HealthCheckCommand struct {
	serviceCommand
}

func (c *HealthCheckCommand) GetName() string { return "health" }
func (c *HealthCheckCommand) GetDescription() string {
	return "Check system health and storage status"
}

func (c *HealthCheckCommand) Execute(ctx context.Context) (*CommandResult, error) {
	// Listing clients touches the backend selected for this session
	if _, err := c.service.ListClients(ctx); err != nil {
		return nil, err
	}

	store := c.service.Store()
	mode := "local"
	if router, isRouter := store.(*storage.Router); isRouter {
		mode = router.Mode(ctx)
	}

	healthData := map[string]interface{}{
		"status":    "healthy",
		"service":   "pocket-crm",
		"store":     store.Name(),
		"mode":      mode,
		"timestamp": time.Now().UTC(),
	}
	if s := session.FromContext(ctx); s != nil {
		healthData["agency"] = s.AgencyID
	}
	return ok(healthData, "Service is healthy"), nil
}
