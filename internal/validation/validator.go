// Package validation provides centralized input validation and conversion.
//
// SYSTEM ARCHITECTURE ROLE:
// This module checks the shape of user input before it reaches the service
// layer. It is schema based: each command or endpoint names a schema, the
// validator converts raw values (strings from flags and query strings, JSON
// numbers from request bodies) to their Go types and reports every problem at once.
//
// KEY RESPONSIBILITIES:
// - Define schemas for CRM command parameters and API inputs
// - Convert strings, JSON numbers and dates to typed values
// - Report field-specific errors with stable codes
//
// INTEGRATION POINTS:
//   - internal/commands/types.go: CommandExecutor validates parameters via SchemaFor()
//   - internal/validation/middleware.go: gin middleware validating query and JSON bodies
//   - internal/errors/errors.go: ValidationResult.ToAppError() converts failures to AppError
//   - schemas: get_record, search_clients, create_client, create_contract, fill_template,
//     list_transactions, create_transaction, monthly_totals, create_demand, add_task, save_template
//
// SCOPE:
// Checks are structural only: types, enums, month and day ranges, id shapes.
// Business rules such as CNPJ check digits are not validated here.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
)

// DateLayout is the accepted date format for date fields
const DateLayout = "2006-01-02"

// FieldValidator provides validation rules for individual fields
type FieldValidator struct {
	Name      string
	Required  bool
	Type      string // string, int, float, bool, date, array, object
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64
	Pattern   *regexp.Regexp
	Options   []string
	Custom    func(interface{}) error
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Errors   []ValidationError      `json:"errors,omitempty"`
	Warnings []ValidationWarning    `json:"warnings,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationWarning represents a field validation warning
type ValidationWarning struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Schema represents a validation schema
type Schema struct {
	Name   string
	Fields map[string]FieldValidator
	Rules  []func(map[string]interface{}) error
}

// Validator provides centralized validation functionality
type Validator struct {
	schemas map[string]*Schema
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := &Validator{
		schemas: make(map[string]*Schema),
	}
	v.registerBuiltinSchemas()
	return v
}

// RegisterSchema registers a validation schema
func (v *Validator) RegisterSchema(schema *Schema) {
	v.schemas[schema.Name] = schema
}

// HasSchema reports whether a schema is registered
func (v *Validator) HasSchema(name string) bool {
	_, ok := v.schemas[name]
	return ok
}

// GetSchema returns a registered schema
func (v *Validator) GetSchema(name string) (*Schema, bool) {
	schema, ok := v.schemas[name]
	return schema, ok
}

// Validate validates data against a schema. Fields are checked in name order
// so errors come back in a stable order.
func (v *Validator) Validate(schemaName string, data map[string]interface{}) *ValidationResult {
	schema, exists := v.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Code:    "SCHEMA_NOT_FOUND",
				Message: fmt.Sprintf("Validation schema '%s' not found", schemaName),
			}},
		}
	}

	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
		Data:     make(map[string]interface{}),
	}

	names := make([]string, 0, len(schema.Fields))
	for name := range schema.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.validateField(name, schema.Fields[name], data, result)
	}

	for name := range data {
		if _, known := schema.Fields[name]; !known {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   name,
				Message: fmt.Sprintf("Field '%s' is not part of %s and was ignored", name, schemaName),
			})
		}
	}

	// schema-level rules see the converted values
	if result.Valid {
		for _, rule := range schema.Rules {
			if err := rule(result.Data); err != nil {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   "schema",
					Code:    "SCHEMA_RULE_VIOLATION",
					Message: err.Error(),
				})
			}
		}
	}

	return result
}

func (result *ValidationResult) fail(field, code, message string, value interface{}) {
	result.Valid = false
	result.Errors = append(result.Errors, ValidationError{
		Field:   field,
		Code:    code,
		Message: message,
		Value:   value,
	})
}

// validateField validates a single field
func (v *Validator) validateField(fieldName string, validator FieldValidator, data map[string]interface{}, result *ValidationResult) {
	value, exists := data[fieldName]

	if validator.Required && (!exists || value == nil || value == "") {
		result.fail(fieldName, "REQUIRED_FIELD_MISSING", fmt.Sprintf("Field '%s' is required", fieldName), nil)
		return
	}

	// Skip validation if field is not present and not required
	if !exists || value == nil || value == "" {
		return
	}

	convertedValue, err := v.validateAndConvertType(fieldName, validator.Type, value)
	if err != nil {
		result.fail(fieldName, "INVALID_TYPE", err.Error(), value)
		return
	}
	result.Data[fieldName] = convertedValue

	switch val := convertedValue.(type) {
	case string:
		checkString(fieldName, validator, val, result)
	case int:
		checkRange(fieldName, validator, float64(val), result)
	case float64:
		checkRange(fieldName, validator, val, result)
	}

	if validator.Custom != nil {
		if err := validator.Custom(convertedValue); err != nil {
			result.fail(fieldName, "CUSTOM_VALIDATION_FAILED", fmt.Sprintf("Field '%s': %s", fieldName, err.Error()), convertedValue)
		}
	}
}

func checkString(fieldName string, validator FieldValidator, strValue string, result *ValidationResult) {
	length := len([]rune(strValue))
	if validator.MinLength > 0 && length < validator.MinLength {
		result.fail(fieldName, "MIN_LENGTH_VIOLATION",
			fmt.Sprintf("Field '%s' must be at least %d characters long", fieldName, validator.MinLength), strValue)
	}
	if validator.MaxLength > 0 && length > validator.MaxLength {
		result.fail(fieldName, "MAX_LENGTH_VIOLATION",
			fmt.Sprintf("Field '%s' must be at most %d characters long", fieldName, validator.MaxLength), strValue)
	}
	if validator.Pattern != nil && !validator.Pattern.MatchString(strValue) {
		result.fail(fieldName, "PATTERN_MISMATCH",
			fmt.Sprintf("Field '%s' does not match required pattern", fieldName), strValue)
	}
	if len(validator.Options) > 0 {
		for _, option := range validator.Options {
			if strValue == option {
				return
			}
		}
		result.fail(fieldName, "INVALID_OPTION",
			fmt.Sprintf("Field '%s' must be one of: %s", fieldName, strings.Join(validator.Options, ", ")), strValue)
	}
}

func checkRange(fieldName string, validator FieldValidator, n float64, result *ValidationResult) {
	if validator.Min != nil && n < *validator.Min {
		result.fail(fieldName, "MIN_VALUE_VIOLATION",
			fmt.Sprintf("Field '%s' must be at least %v", fieldName, *validator.Min), n)
	}
	if validator.Max != nil && n > *validator.Max {
		result.fail(fieldName, "MAX_VALUE_VIOLATION",
			fmt.Sprintf("Field '%s' must be at most %v", fieldName, *validator.Max), n)
	}
}

// validateAndConvertType validates and converts value to the specified type
func (v *Validator) validateAndConvertType(fieldName, expectedType string, value interface{}) (interface{}, error) {
	switch expectedType {
	case "string":
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str), nil
		}
		return fmt.Sprintf("%v", value), nil

	case "int":
		switch val := value.(type) {
		case int:
			return val, nil
		case float64:
			if val == float64(int(val)) {
				return int(val), nil
			}
		case string:
			if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				return intVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be an integer", fieldName)

	case "float":
		switch val := value.(type) {
		case float64:
			return val, nil
		case int:
			return float64(val), nil
		case string:
			// accept both 1234.56 and the Brazilian 1.234,56
			s := strings.TrimSpace(val)
			if strings.Contains(s, ",") {
				s = strings.ReplaceAll(s, ".", "")
				s = strings.Replace(s, ",", ".", 1)
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be a number", fieldName)

	case "bool":
		switch val := value.(type) {
		case bool:
			return val, nil
		case string:
			if boolVal, err := strconv.ParseBool(val); err == nil {
				return boolVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be a boolean", fieldName)

	case "date":
		switch val := value.(type) {
		case time.Time:
			return val, nil
		case string:
			s := strings.TrimSpace(val)
			if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
				return t, nil
			}
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be a date (YYYY-MM-DD)", fieldName)

	case "array":
		switch val := value.(type) {
		case []interface{}:
			return val, nil
		case []string:
			result := make([]interface{}, len(val))
			for i, v := range val {
				result[i] = v
			}
			return result, nil
		case string:
			// Handle comma-separated values
			if val != "" {
				parts := strings.Split(val, ",")
				result := make([]interface{}, len(parts))
				for i, part := range parts {
					result[i] = strings.TrimSpace(part)
				}
				return result, nil
			}
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("field '%s' must be an array", fieldName)

	case "object":
		if obj, ok := value.(map[string]interface{}); ok {
			return obj, nil
		}
		return nil, fmt.Errorf("field '%s' must be an object", fieldName)

	default:
		return value, nil
	}
}

func bound(f float64) *float64 { return &f }

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func idField(name string, required bool) FieldValidator {
	return FieldValidator{Name: name, Type: "string", Required: required, MaxLength: 100, Pattern: idPattern}
}

func enumOptions[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var (
	formatField = FieldValidator{Name: "format", Type: "string", Options: []string{"json", "table", "text"}}
	monthField  = FieldValidator{Name: "mes", Type: "int", Min: bound(1), Max: bound(12)}
	yearField   = FieldValidator{Name: "ano", Type: "int", Min: bound(1900), Max: bound(9999)}
	dueDayField = FieldValidator{Name: "dia_vencimento", Type: "int", Min: bound(1), Max: bound(31)}
	moneyField  = FieldValidator{Name: "valor", Type: "float", Min: bound(0)}
)

func required(f FieldValidator) FieldValidator {
	f.Required = true
	return f
}

// endAfterStart rejects a data_fim before data_inicio
func endAfterStart(data map[string]interface{}) error {
	start, ok1 := data["data_inicio"].(time.Time)
	end, ok2 := data["data_fim"].(time.Time)
	if ok1 && ok2 && end.Before(start) {
		return fmt.Errorf("data_fim must not be before data_inicio")
	}
	return nil
}

// registerBuiltinSchemas registers the CRM schemas
func (v *Validator) registerBuiltinSchemas() {
	v.RegisterSchema(&Schema{
		Name: "get_record",
		Fields: map[string]FieldValidator{
			"id":     idField("id", true),
			"format": formatField,
		},
	})

	v.RegisterSchema(&Schema{
		Name: "list_records",
		Fields: map[string]FieldValidator{
			"client_id": idField("client_id", false),
			"status":    {Name: "status", Type: "string", MaxLength: 32},
			"format":    formatField,
		},
	})

	v.RegisterSchema(&Schema{
		Name: "search_clients",
		Fields: map[string]FieldValidator{
			"query":  {Name: "query", Type: "string", MaxLength: 200},
			"format": formatField,
		},
	})

	v.RegisterSchema(&Schema{
		Name: "create_client",
		Fields: map[string]FieldValidator{
			"id":              idField("id", false),
			"razao_social":    {Name: "razao_social", Type: "string", Required: true, MinLength: 1, MaxLength: 300},
			"cnpj":            {Name: "cnpj", Type: "string", MaxLength: 32, Pattern: regexp.MustCompile(`^[0-9./-]*$`)},
			"endereco":        {Name: "endereco", Type: "string", MaxLength: 500},
			"valor_pago":      {Name: "valor_pago", Type: "float", Min: bound(0)},
			"recorrencia":     {Name: "recorrencia", Type: "string", Options: enumOptions(models.ClientRecurrences)},
			"responsavel":     {Name: "responsavel", Type: "string", MaxLength: 200},
			"contato_interno": {Name: "contato_interno", Type: "string", MaxLength: 200},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "fill_template",
		Fields: map[string]FieldValidator{
			"client_id":      idField("client_id", false),
			"template_id":    idField("template_id", false),
			"template":       {Name: "template", Type: "string", MaxLength: 200000},
			"valor":          moneyField,
			"recorrencia":    {Name: "recorrencia", Type: "string", Options: enumOptions(models.Recurrences)},
			"data_inicio":    {Name: "data_inicio", Type: "date"},
			"data_fim":       {Name: "data_fim", Type: "date"},
			"servico":        {Name: "servico", Type: "string", MaxLength: 1000},
			"dia_vencimento": dueDayField,
			"cidade":         {Name: "cidade", Type: "string", MaxLength: 200},
			"format":         formatField,
		},
		Rules: []func(map[string]interface{}) error{endAfterStart},
	})

	v.RegisterSchema(&Schema{
		Name: "create_contract",
		Fields: map[string]FieldValidator{
			"client_id":      idField("client_id", true),
			"titulo":         {Name: "titulo", Type: "string", MaxLength: 300},
			"template_id":    idField("template_id", false),
			"valor":          moneyField,
			"recorrencia":    {Name: "recorrencia", Type: "string", Options: enumOptions(models.Recurrences)},
			"data_inicio":    {Name: "data_inicio", Type: "date"},
			"data_fim":       {Name: "data_fim", Type: "date"},
			"status":         {Name: "status", Type: "string", Options: enumOptions(models.ContractStatuses)},
			"servico":        {Name: "servico", Type: "string", MaxLength: 1000},
			"dia_vencimento": dueDayField,
			"cidade":         {Name: "cidade", Type: "string", MaxLength: 200},
		},
		Rules: []func(map[string]interface{}) error{endAfterStart},
	})

	v.RegisterSchema(&Schema{
		Name: "save_template",
		Fields: map[string]FieldValidator{
			"id":          idField("id", false),
			"name":        {Name: "name", Type: "string", Required: true, MinLength: 1, MaxLength: 200},
			"description": {Name: "description", Type: "string", MaxLength: 1000},
			"content":     {Name: "content", Type: "string", Required: true, MinLength: 1, MaxLength: 200000},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "list_transactions",
		Fields: map[string]FieldValidator{
			"mes":    monthField,
			"ano":    yearField,
			"tipo":   {Name: "tipo", Type: "string", Options: []string{string(models.Entrada), string(models.Despesa)}},
			"format": formatField,
		},
		Rules: []func(map[string]interface{}) error{
			func(data map[string]interface{}) error {
				_, hasMes := data["mes"]
				_, hasAno := data["ano"]
				if hasMes != hasAno {
					return fmt.Errorf("mes and ano must be given together")
				}
				return nil
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "create_transaction",
		Fields: map[string]FieldValidator{
			"id":              idField("id", false),
			"tipo":            {Name: "tipo", Type: "string", Required: true, Options: []string{string(models.Entrada), string(models.Despesa)}},
			"descricao":       {Name: "descricao", Type: "string", Required: true, MinLength: 1, MaxLength: 500},
			"valor":           required(moneyField),
			"categoria":       {Name: "categoria", Type: "string", MaxLength: 100},
			"mes":             required(monthField),
			"ano":             required(yearField),
			"vencimento":      {Name: "vencimento", Type: "int", Min: bound(1), Max: bound(31)},
			"payer_type":      {Name: "payer_type", Type: "string", Options: []string{string(models.PayerCliente), string(models.PayerColaborador), string(models.PayerOutro)}},
			"referencia_nome": {Name: "referencia_nome", Type: "string", MaxLength: 300},
			"client_id":       idField("client_id", false),
		},
	})

	v.RegisterSchema(&Schema{
		Name: "monthly_totals",
		Fields: map[string]FieldValidator{
			"ano":    required(yearField),
			"format": formatField,
		},
	})

	v.RegisterSchema(&Schema{
		Name: "create_demand",
		Fields: map[string]FieldValidator{
			"id":           idField("id", false),
			"client_id":    idField("client_id", false),
			"demanda":      {Name: "demanda", Type: "string", Required: true, MinLength: 1, MaxLength: 300},
			"descricao":    {Name: "descricao", Type: "string", MaxLength: 5000},
			"data_pedido":  {Name: "data_pedido", Type: "date"},
			"data_entrega": {Name: "data_entrega", Type: "date", Required: true},
			"responsavel":  {Name: "responsavel", Type: "string", MaxLength: 200},
			"status":       {Name: "status", Type: "string", Options: enumOptions(models.DemandStatuses)},
			"prioridade":   {Name: "prioridade", Type: "string", Options: enumOptions(models.Priorities)},
			"tarefas":      {Name: "tarefas", Type: "array"},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "add_task",
		Fields: map[string]FieldValidator{
			"id":     idField("id", true),
			"titulo": {Name: "titulo", Type: "string", Required: true, MinLength: 1, MaxLength: 300},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "toggle_task",
		Fields: map[string]FieldValidator{
			"id":      idField("id", true),
			"task_id": idField("task_id", true),
		},
	})

	v.RegisterSchema(&Schema{
		Name: "set_demand_status",
		Fields: map[string]FieldValidator{
			"id":     idField("id", true),
			"status": {Name: "status", Type: "string", Required: true, Options: enumOptions(models.DemandStatuses)},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "switch_agency",
		Fields: map[string]FieldValidator{
			"id": idField("id", true),
		},
	})
}

// ToAppError converts validation result to AppError
func (result *ValidationResult) ToAppError() *errors.AppError {
	if result.Valid {
		return nil
	}

	if len(result.Errors) == 0 {
		return errors.ValidationError("Validation failed")
	}

	// Use the first error as the primary error
	firstError := result.Errors[0]
	appErr := errors.ValidationError(firstError.Message)

	var details []string
	for _, validationErr := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message))
	}
	appErr.WithDetails(strings.Join(details, "; "))

	appErr.WithContext("field", firstError.Field)
	appErr.WithContext("validation_errors", result.Errors)
	if len(result.Warnings) > 0 {
		appErr.WithContext("validation_warnings", result.Warnings)
	}

	return appErr
}

// GetValidatedData returns the validated and converted data
func (result *ValidationResult) GetValidatedData() map[string]interface{} {
	if !result.Valid {
		return nil
	}
	return result.Data
}
