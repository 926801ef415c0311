// Package commands implements the unified command execution system for pocket-crm.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the coordination layer between user interfaces (CLI, HTTP)
// and the service layer. Every operation is a Command looked up by name, so
// each interface validates and reports the same way.
//
// INTEGRATION POINTS:
// - internal/cli/cli.go: cobra commands build a parameter map and call Execute()
// - internal/api/server.go: handlers run commands for every endpoint
// - internal/service: commands delegate business logic through ServiceAwareCommand
// - internal/validation/validator.go: parameters are validated via SchemaFor()
// - internal/errors/errors.go: failures are converted to ErrorInfo from AppErrors
//
// COMMAND FLOW:
// 1. Interface converts its input to a parameter map
// 2. CommandExecutor validates the map against the command's schema
// 3. A fresh command instance receives the service and the converted parameters
// 4. The command executes against the service using the caller's context
// 5. The CommandResult is rendered by the interface
//
// The caller's context carries the session, which decides whether records go
// to the local store or the remote database.
package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/validation"
)

// CommandResult represents the result of executing a command
type CommandResult struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Success bool        `json:"success"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo provides structured error information
type ErrorInfo struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// AsError turns a failed result back into an AppError
func (r *CommandResult) AsError() error {
	if r == nil || r.Success || r.Error == nil {
		return nil
	}
	appErr := errors.NewAppError(errors.ErrorCode(r.Error.Code), r.Error.Message)
	if r.Error.Details != "" {
		appErr.WithDetails(r.Error.Details)
	}
	return appErr
}

func errorResult(appErr *errors.AppError) *CommandResult {
	return &CommandResult{
		Success: false,
		Error: &ErrorInfo{
			Code:     string(appErr.Code),
			Message:  appErr.Message,
			Details:  appErr.Details,
			Category: string(appErr.Category),
			Severity: string(appErr.Severity),
		},
	}
}

func ok(data interface{}, format string, args ...interface{}) *CommandResult {
	return &CommandResult{
		Success: true,
		Data:    data,
		Message: fmt.Sprintf(format, args...),
	}
}

// Command represents a unified command interface
type Command interface {
	Execute(ctx context.Context) (*CommandResult, error)
	Validate() error
	GetName() string
	GetDescription() string
}

// ParameterizedCommand interface for commands that accept parameters
type ParameterizedCommand interface {
	SetParameters(params validation.Params) error
}

// ServiceAwareCommand interface for commands that need service access
type ServiceAwareCommand interface {
	SetService(svc *service.Service)
}

// serviceCommand is embedded by every command that talks to the service
type serviceCommand struct {
	service *service.Service
}

func (c *serviceCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *serviceCommand) Validate() error {
	if c.service == nil {
		return fmt.Errorf("service not set")
	}
	return nil
}

// CommandRegistry manages available commands
type CommandRegistry struct {
	commands map[string]func() Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]func() Command),
	}
}

// Register adds a command factory to the registry
func (r *CommandRegistry) Register(name string, factory func() Command) {
	r.commands[name] = factory
}

// Get retrieves a command factory by name
func (r *CommandRegistry) Get(name string) (func() Command, bool) {
	factory, exists := r.commands[name]
	return factory, exists
}

// List returns all available command names, sorted
func (r *CommandRegistry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandExecutor provides a unified way to execute commands
type CommandExecutor struct {
	service   *service.Service
	registry  *CommandRegistry
	validator *validation.Validator
	log       *logger.Logger
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(svc *service.Service, log *logger.Logger) *CommandExecutor {
	executor := &CommandExecutor{
		service:   svc,
		registry:  NewCommandRegistry(),
		validator: validation.NewValidator(),
		log:       logger.OrNop(log).With("component", "commands"),
	}
	executor.registerCommands()
	return executor
}

// Registry exposes the registered commands
func (e *CommandExecutor) Registry() *CommandRegistry {
	return e.registry
}

// Describe returns name -> description for every command
func (e *CommandExecutor) Describe() map[string]string {
	out := make(map[string]string)
	for _, name := range e.registry.List() {
		factory, _ := e.registry.Get(name)
		out[name] = factory().GetDescription()
	}
	return out
}

// Execute runs a command by name with the given parameters. Failures are
// reported in the result; the error return is reserved for callers that
// want to abort.
func (e *CommandExecutor) Execute(ctx context.Context, commandName string, params map[string]interface{}) (*CommandResult, error) {
	factory, exists := e.registry.Get(commandName)
	if !exists {
		return errorResult(errors.CommandNotFoundError(commandName)), nil
	}

	if params == nil {
		params = make(map[string]interface{})
	}
	if schema := SchemaFor(commandName); schema != "" {
		validationResult := e.validator.Validate(schema, params)
		if !validationResult.Valid {
			return errorResult(validationResult.ToAppError()), nil
		}
		params = validationResult.GetValidatedData()
	}

	cmd := factory()

	if parameterized, ok := cmd.(ParameterizedCommand); ok {
		if err := parameterized.SetParameters(validation.Params(params)); err != nil {
			return errorResult(errors.ValidationError(err.Error())), nil
		}
	}

	if err := cmd.Validate(); err != nil {
		return errorResult(errors.InvalidCommandError(commandName, err.Error())), nil
	}

	result, err := cmd.Execute(ctx)
	if err != nil {
		appErr := errors.GetAppError(err)
		e.log.Debug("command failed", "command", commandName, "code", appErr.Code, "error", err)
		return errorResult(appErr), nil
	}
	return result, nil
}

// SchemaFor returns the validation schema name for a command, or "" when the
// command takes no parameters
func SchemaFor(commandName string) string {
	switch commandName {
	case "client-get", "client-delete", "contract-get", "contract-delete",
		"template-get", "template-delete", "transaction-get", "transaction-delete",
		"demand-get", "demand-delete":
		return "get_record"
	case "client-list", "contract-list", "demand-list":
		return "list_records"
	case "client-search":
		return "search_clients"
	case "client-create", "client-update":
		return "create_client"
	case "contract-preview":
		return "fill_template"
	case "contract-create":
		return "create_contract"
	case "template-save":
		return "save_template"
	case "transaction-list":
		return "list_transactions"
	case "transaction-create", "transaction-update":
		return "create_transaction"
	case "transaction-monthly":
		return "monthly_totals"
	case "demand-create", "demand-update":
		return "create_demand"
	case "demand-add-task":
		return "add_task"
	case "demand-toggle-task":
		return "toggle_task"
	case "demand-status":
		return "set_demand_status"
	default:
		return ""
	}
}

// register wires the service into every instance the factory builds
func (e *CommandExecutor) register(name string, factory func() Command) {
	e.registry.Register(name, func() Command {
		cmd := factory()
		if serviceAware, ok := cmd.(ServiceAwareCommand); ok {
			serviceAware.SetService(e.service)
		}
		return cmd
	})
}

// registerCommands registers all available commands
func (e *CommandExecutor) registerCommands() {
	// Clients
	e.register("client-list", func() Command { return &ListClientsCommand{} })
	e.register("client-search", func() Command { return &SearchClientsCommand{} })
	e.register("client-get", func() Command { return &GetClientCommand{} })
	e.register("client-create", func() Command { return &SaveClientCommand{} })
	e.register("client-update", func() Command { return &SaveClientCommand{Update: true} })
	e.register("client-delete", func() Command { return &DeleteClientCommand{} })

	// Contracts and templates
	e.register("contract-list", func() Command { return &ListContractsCommand{} })
	e.register("contract-get", func() Command { return &GetContractCommand{} })
	e.register("contract-preview", func() Command { return &PreviewContractCommand{} })
	e.register("contract-create", func() Command { return &CreateContractCommand{} })
	e.register("contract-delete", func() Command { return &DeleteContractCommand{} })
	e.register("template-list", func() Command { return &ListTemplatesCommand{} })
	e.register("template-get", func() Command { return &GetTemplateCommand{} })
	e.register("template-save", func() Command { return &SaveTemplateCommand{} })
	e.register("template-delete", func() Command { return &DeleteTemplateCommand{} })
	e.register("placeholders", func() Command { return &PlaceholdersCommand{} })

	// Finances
	e.register("transaction-list", func() Command { return &ListTransactionsCommand{} })
	e.register("transaction-get", func() Command { return &GetTransactionCommand{} })
	e.register("transaction-create", func() Command { return &SaveTransactionCommand{} })
	e.register("transaction-update", func() Command { return &SaveTransactionCommand{Update: true} })
	e.register("transaction-delete", func() Command { return &DeleteTransactionCommand{} })
	e.register("transaction-monthly", func() Command { return &MonthlyTotalsCommand{} })

	// Demands
	e.register("demand-list", func() Command { return &ListDemandsCommand{} })
	e.register("demand-get", func() Command { return &GetDemandCommand{} })
	e.register("demand-create", func() Command { return &SaveDemandCommand{} })
	e.register("demand-update", func() Command { return &SaveDemandCommand{Update: true} })
	e.register("demand-delete", func() Command { return &DeleteDemandCommand{} })
	e.register("demand-add-task", func() Command { return &AddTaskCommand{} })
	e.register("demand-toggle-task", func() Command { return &ToggleTaskCommand{} })
	e.register("demand-status", func() Command { return &SetDemandStatusCommand{} })

	// Utility
	e.register("dashboard", func() Command { return &DashboardCommand{} })
	e.register("notifications", func() Command { return &NotificationsCommand{} })
	e.register("health", func() Command { return &HealthCheckCommand{} })
}
