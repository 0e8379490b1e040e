// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}
        },
        "/health/ready": {
            "get": {"tags": ["health"], "summary": "Readiness", "produces": ["application/json"],
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Not ready"}}}
        },
        "/health/live": {
            "get": {"tags": ["health"], "summary": "Liveness", "responses": {"200": {"description": "Alive"}}}
        },
        "/auth/register": {
            "post": {"tags": ["auth"], "summary": "Register user", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input"}, "409": {"description": "Username or email taken"}}}
        },
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Log in", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}}, "401": {"description": "Invalid credentials"}}}
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Log out", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthenticated"}}}
        },
        "/api/v1/patients": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["patients"], "summary": "Search patients", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "stroke_filter", "in": "query", "enum": ["0", "1"]},
                    {"type": "string", "name": "gender_filter", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query", "minimum": 1, "maximum": 1000000},
                    {"type": "integer", "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Page out of range"}, "503": {"description": "Database unavailable"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["patients"], "summary": "Create patient", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PatientRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input"}, "409": {"description": "Duplicate patient id"}}}
        },
        "/api/v1/patients/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["patients"], "summary": "Get patient", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["patients"], "summary": "Update patient", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PatientRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid input"}, "404": {"description": "Not found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["patients"], "summary": "Delete patient",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/api/v1/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Dashboard summary", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/analytics": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Cohort analytics", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/predict": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["prediction"], "summary": "Predict stroke risk", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PredictRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PredictResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.PredictFailure"}},
                    "503": {"description": "Model unavailable", "schema": {"$ref": "#/definitions/handlers.PredictFailure"}}
                }}
        },
        "/api/v1/admin/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List users", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin access required"}}}
        },
        "/api/v1/admin/audit": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Recent audit events", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin access required"}}}
        }
    },
    "definitions": {
        "handlers.RegisterRequest": {"type": "object", "required": ["username", "email", "password", "confirm_password"],
            "properties": {"username": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}, "confirm_password": {"type": "string"}}},
        "handlers.LoginRequest": {"type": "object", "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.LoginResponse": {"type": "object",
            "properties": {"token": {"type": "string"}, "expires_in": {"type": "integer"}, "username": {"type": "string"}, "is_admin": {"type": "boolean"}}},
        "handlers.PatientRequest": {"type": "object",
            "properties": {
                "id": {"type": "integer"}, "gender": {"type": "string"}, "age": {"type": "number"},
                "hypertension": {"type": "integer"}, "heart_disease": {"type": "integer"},
                "ever_married": {"type": "string"}, "work_type": {"type": "string"}, "Residence_type": {"type": "string"},
                "avg_glucose_level": {"type": "number"}, "bmi": {"type": "string"},
                "smoking_status": {"type": "string"}, "stroke": {"type": "integer"}
            }},
        "handlers.PredictRequest": {"type": "object",
            "properties": {
                "gender": {"type": "string"}, "age": {"type": "number"},
                "hypertension": {"type": "integer"}, "heart_disease": {"type": "integer"},
                "ever_married": {"type": "string"}, "work_type": {"type": "string"}, "Residence_type": {"type": "string"},
                "avg_glucose_level": {"type": "number"}, "bmi": {"type": "number"}, "smoking_status": {"type": "string"}
            }},
        "handlers.PredictResponse": {"type": "object",
            "properties": {"success": {"type": "boolean"}, "risk_probability": {"type": "number"}, "risk_category": {"type": "string"}, "risk_color": {"type": "string"}}},
        "handlers.PredictFailure": {"type": "object",
            "properties": {"success": {"type": "boolean"}, "error": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Healthcare Records API",
	Description:      "Patient records, cohort analytics and stroke risk prediction.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
