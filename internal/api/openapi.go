// Package api/openapi serves the OpenAPI 3.0 description of the API.
//
// The document is generated from the Routes table and the validation schemas
// each command uses, so parameters and enums cannot drift from what the
// server actually accepts.
//
// - Interactive docs: /api/docs (Swagger UI from the unpkg CDN)
// - Machine-readable spec: /api/openapi.json
package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dpshade/pocket-crm/internal/commands"
	"github.com/dpshade/pocket-crm/internal/validation"
)

const docsPage = `<!DOCTYPE html>
<html>
<head>
    <title>Pocket CRM API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui.css" />
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        body { margin:0; background: #fafafa; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/openapi.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis]
            });
        };
    </script>
</body>
</html>`

// handleOpenAPI serves the OpenAPI documentation interface
func (s *Server) handleOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}

// handleOpenAPISpec serves the OpenAPI JSON specification
func (s *Server) handleOpenAPISpec(c *gin.Context) {
	c.JSON(http.StatusOK, OpenAPISpec(s.validator.GetValidator()))
}

// OpenAPISpec builds the OpenAPI 3.0 document for Routes
func OpenAPISpec(v *validation.Validator) map[string]interface{} {
	paths := map[string]map[string]interface{}{}
	for _, route := range Routes {
		path := openAPIPath(route.Path)
		if paths[path] == nil {
			paths[path] = map[string]interface{}{}
		}
		paths[path][strings.ToLower(route.Method)] = operation(v, route)
	}

	sessionHeaders := []map[string]interface{}{
		headerParam(HeaderUserID, "Authenticated user; records go to the shared database when set"),
		headerParam(HeaderAgencyID, "Agency whose records are read and written"),
	}
	for _, ops := range paths {
		ops["parameters"] = sessionHeaders
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Pocket CRM API",
			"description": "Clients, contracts, finances and demands for small agencies",
			"version":     "1.0.0",
		},
		"servers": []map[string]interface{}{
			{"url": "http://localhost:8080/api/v1", "description": "Development server"},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"APIResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"success":   map[string]interface{}{"type": "boolean"},
						"data":      map[string]interface{}{"description": "Command result"},
						"message":   map[string]interface{}{"type": "string"},
						"timestamp": map[string]interface{}{"type": "string", "format": "date-time"},
					},
					"required": []string{"success", "timestamp"},
				},
				"ErrorResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"success": map[string]interface{}{"type": "boolean"},
						"error": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"code":      map[string]interface{}{"type": "string"},
								"message":   map[string]interface{}{"type": "string"},
								"details":   map[string]interface{}{"type": "string"},
								"context":   map[string]interface{}{"type": "object"},
								"retryable": map[string]interface{}{"type": "boolean"},
							},
							"required": []string{"code", "message"},
						},
					},
					"required": []string{"success", "error"},
				},
			},
		},
	}
}

// openAPIPath converts "/demands/:id/tasks" to "/demands/{id}/tasks"
func openAPIPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + p[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

func pathParams(path string) map[string]bool {
	out := map[string]bool{}
	for _, p := range strings.Split(path, "/") {
		if strings.HasPrefix(p, ":") {
			out[validation.SnakeCase(p[1:])] = true
		}
	}
	return out
}

func operation(v *validation.Validator, route Route) map[string]interface{} {
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}

	op := map[string]interface{}{
		"summary":     route.Summary,
		"operationId": route.Command,
		"tags":        []string{route.Tag},
		"responses": map[string]interface{}{
			strconv.Itoa(status): response(http.StatusText(status), "APIResponse"),
			"400":                response("Invalid parameters", "ErrorResponse"),
			"404":                response("Record not found", "ErrorResponse"),
			"500":                response("Internal server error", "ErrorResponse"),
		},
	}

	var params []map[string]interface{}
	inPath := pathParams(route.Path)
	for _, segment := range strings.Split(route.Path, "/") {
		if strings.HasPrefix(segment, ":") {
			params = append(params, map[string]interface{}{
				"name":     segment[1:],
				"in":       "path",
				"required": true,
				"schema":   map[string]interface{}{"type": "string"},
			})
		}
	}

	schema, ok := v.GetSchema(commands.SchemaFor(route.Command))
	if ok {
		names := make([]string, 0, len(schema.Fields))
		for name := range schema.Fields {
			if !inPath[name] {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		if route.Method == http.MethodGet || route.Method == http.MethodDelete {
			for _, name := range names {
				field := schema.Fields[name]
				params = append(params, map[string]interface{}{
					"name":     name,
					"in":       "query",
					"required": field.Required,
					"schema":   fieldSchema(field),
				})
			}
		} else if len(names) > 0 {
			properties := map[string]interface{}{}
			var required []string
			for _, name := range names {
				field := schema.Fields[name]
				properties[name] = fieldSchema(field)
				if field.Required {
					required = append(required, name)
				}
			}
			body := map[string]interface{}{"type": "object", "properties": properties}
			if len(required) > 0 {
				body["required"] = required
			}
			op["requestBody"] = map[string]interface{}{
				"required": len(required) > 0,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{"schema": body},
				},
			}
		}
	}

	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func fieldSchema(field validation.FieldValidator) map[string]interface{} {
	out := map[string]interface{}{}
	switch field.Type {
	case "int":
		out["type"] = "integer"
	case "float":
		out["type"] = "number"
	case "bool":
		out["type"] = "boolean"
	case "date":
		out["type"] = "string"
		out["format"] = "date"
	case "array":
		out["type"] = "array"
		out["items"] = map[string]interface{}{}
	case "object":
		out["type"] = "object"
	default:
		out["type"] = "string"
	}
	if len(field.Options) > 0 {
		out["enum"] = field.Options
	}
	if field.MaxLength > 0 {
		out["maxLength"] = field.MaxLength
	}
	if field.Min != nil {
		out["minimum"] = *field.Min
	}
	if field.Max != nil {
		out["maximum"] = *field.Max
	}
	if field.Pattern != nil {
		out["pattern"] = field.Pattern.String()
	}
	return out
}

func headerParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "header",
		"required":    false,
		"description": description,
		"schema":      map[string]interface{}{"type": "string"},
	}
}

func response(description, schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{"$ref": "#/components/schemas/" + schemaRef},
			},
		},
	}
}
