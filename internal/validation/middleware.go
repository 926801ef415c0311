// Package validation/middleware provides gin request validation middleware.
//
// SYSTEM ARCHITECTURE ROLE:
// This module bridges HTTP request parsing with the schema validator so that
// API handlers only ever see converted, validated parameters.
//
// HTTP VALIDATION FLOW:
//  1. Request reaches a route wrapped with ValidateRequest(schema)
//  2. Query, path and JSON body values are merged into one map
//     (camelCase body keys are accepted and stored as snake_case)
//  3. The map is validated against the schema
//  4. Invalid requests are aborted with 400 and the AppError envelope
//  5. Valid requests continue; handlers read Validated(c)
package validation

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
)

const validatedDataKey = "validation.params"

// Params is a validated parameter map with typed accessors
type Params map[string]interface{}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Params) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func (p Params) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (p Params) Float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Time returns a date field, or the zero time when absent
func (p Params) Time(key string) time.Time {
	t, _ := p[key].(time.Time)
	return t
}

// TimePtr returns a date field, or nil when absent
func (p Params) TimePtr(key string) *time.Time {
	t, ok := p[key].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

// Strings returns an array field as strings, skipping non-string entries
func (p Params) Strings(key string) []string {
	arr, _ := p[key].([]interface{})
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RequestValidator provides middleware for HTTP request validation
type RequestValidator struct {
	validator *Validator
	errors    *errors.HTTPErrorHandler
}

// NewRequestValidator creates a new request validator middleware
func NewRequestValidator(log *logger.Logger) *RequestValidator {
	return &RequestValidator{
		validator: NewValidator(),
		errors:    errors.NewHTTPErrorHandler(true, log),
	}
}

// ValidateRequest returns gin middleware validating the request against schemaName
func (rv *RequestValidator) ValidateRequest(schemaName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := extractRequestData(c)
		if err != nil {
			rv.errors.WriteGinError(c, err)
			return
		}

		result := rv.validator.Validate(schemaName, data)
		if !result.Valid {
			rv.errors.WriteGinError(c, result.ToAppError())
			return
		}

		c.Set(validatedDataKey, Params(result.GetValidatedData()))
		c.Next()
	}
}

// Validated returns the parameters stored by ValidateRequest
func Validated(c *gin.Context) Params {
	if v, ok := c.Get(validatedDataKey); ok {
		if p, ok := v.(Params); ok {
			return p
		}
	}
	return Params{}
}

// extractRequestData merges query, path and body values; later sources win
func extractRequestData(c *gin.Context) (map[string]interface{}, error) {
	data := make(map[string]interface{})

	for key, values := range c.Request.URL.Query() {
		if len(values) == 1 {
			data[SnakeCase(key)] = values[0]
		} else if len(values) > 1 {
			data[SnakeCase(key)] = values
		}
	}

	method := c.Request.Method
	if method == "POST" || method == "PUT" || method == "PATCH" {
		if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			body, err := extractJSONBody(c)
			if err != nil {
				return nil, err
			}
			for key, value := range body {
				data[SnakeCase(key)] = value
			}
		}
	}

	for _, p := range c.Params {
		data[SnakeCase(p.Key)] = p.Value
	}
	return data, nil
}

// extractJSONBody reads the body and puts it back for later binding
func extractJSONBody(c *gin.Context) (map[string]interface{}, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.ValidationError("Failed to read request body")
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]interface{}{}, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.ValidationError("Invalid JSON in request body")
	}
	return data, nil
}

// SnakeCase converts "razaoSocial" to "razao_social" and "CNPJ" to "cnpj";
// snake_case input is unchanged
func SnakeCase(key string) string {
	var b strings.Builder
	var prev rune
	for _, r := range key {
		if unicode.IsUpper(r) {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// SanitizeString removes control characters except newlines and tabs
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r == '\n' || r == '\t' || r == '\r' || r >= 32 {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// GetValidator returns the underlying validator instance
func (rv *RequestValidator) GetValidator() *Validator {
	return rv.validator
}
