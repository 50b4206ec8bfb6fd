// Package docs registers the salonq OpenAPI document for the swagger UI.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/queue/join": {"post": {"security": [{"BearerAuth": []}], "tags": ["Queue"], "summary": "Join a salon queue", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/queue/schedule": {"post": {"security": [{"BearerAuth": []}], "tags": ["Queue"], "summary": "Book an appointment slot", "responses": {"201": {"description": "Created"}}}},
        "/queue/my-bookings": {"get": {"security": [{"BearerAuth": []}], "tags": ["Queue"], "summary": "List the caller's bookings", "responses": {"200": {"description": "OK"}}}},
        "/queue/bookings/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Queue"], "summary": "Get a booking", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/queue/bookings/{id}/cancel": {"post": {"security": [{"BearerAuth": []}], "tags": ["Queue"], "summary": "Cancel the caller's booking", "responses": {"200": {"description": "OK"}}}},
        "/salons": {"get": {"tags": ["Salons"], "summary": "List active salons", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}": {"get": {"tags": ["Salons"], "summary": "Salon with service catalog", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/wait-time": {"get": {"tags": ["Salons"], "summary": "Estimated wait", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/events": {"get": {"tags": ["Salons"], "summary": "Server-sent queue events", "produces": ["text/event-stream"], "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/queue": {"get": {"security": [{"BearerAuth": []}], "tags": ["Staff"], "summary": "Active and skipped bookings", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/walk-in": {"post": {"security": [{"BearerAuth": []}], "tags": ["Staff"], "summary": "Register a walk-in", "responses": {"201": {"description": "Created"}}}},
        "/salons/{id}/reorder": {"post": {"security": [{"BearerAuth": []}], "tags": ["Staff"], "summary": "Compact queue positions", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/settings": {"put": {"security": [{"BearerAuth": []}], "tags": ["Staff"], "summary": "Update salon settings", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/priority-logs": {"get": {"security": [{"BearerAuth": []}], "tags": ["Staff"], "summary": "Priority override audit", "responses": {"200": {"description": "OK"}}}},
        "/salons/{id}/bookings/{bid}/{action}": {"post": {"security": [{"BearerAuth": []}], "tags": ["Staff"], "summary": "arrive, start, complete, cancel, skip, undo-skip or priority", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Get my profile", "responses": {"200": {"description": "OK"}}}},
        "/me/device-token": {"put": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Register push device", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "salonq API",
	Description:      "Salon walk-in queue and booking API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
