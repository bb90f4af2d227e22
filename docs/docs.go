// Package docs registers the OpenAPI document served under /swagger.
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
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/neos": {
            "get": {
                "produces": ["application/json"],
                "tags": ["neos"],
                "summary": "Near-Earth objects for one day",
                "parameters": [
                    {"type": "string", "format": "date", "description": "Calendar day (YYYY-MM-DD), defaults to today (UTC)", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DayResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/neos/historical": {
            "get": {
                "produces": ["application/json"],
                "tags": ["neos"],
                "summary": "Daily summaries over a date range",
                "parameters": [
                    {"type": "string", "format": "date", "description": "First day (YYYY-MM-DD)", "name": "start_date", "in": "query"},
                    {"type": "string", "format": "date", "description": "Last day (YYYY-MM-DD)", "name": "end_date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoricalResponse"}},
                    "400": {"description": "Bad Request (invalid date, inverted range or range longer than NEO_MAX_HISTORICAL_DAYS)", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.DayResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2024-01-01"},
                "count": {"type": "integer", "example": 2},
                "asteroids": {"type": "array", "items": {"$ref": "#/definitions/models.NormalizedObject"}}
            }
        },
        "dto.HistoricalResponse": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "example": "2024-01-01"},
                "endDate": {"type": "string", "example": "2024-01-07"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.DailySummary"}}
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "OK"},
                "message": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Failed to fetch asteroid data"},
                "error": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "models.NormalizedObject": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "isHazardous": {"type": "boolean"},
                "distance": {
                    "type": "object",
                    "properties": {"kilometers": {"type": "number"}, "lunar": {"type": "number"}}
                },
                "diameter": {
                    "type": "object",
                    "properties": {"min": {"type": "number"}, "max": {"type": "number"}}
                },
                "velocityKmPerHour": {"type": "number"},
                "closeApproachDate": {"type": "string"},
                "orbitingBody": {"type": "string"}
            }
        },
        "models.DailySummary": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "totalCount": {"type": "integer"},
                "hazardousCount": {"type": "integer"},
                "averageDistanceKilometers": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "neowatch API",
	Description:      "Near-Earth object feed: daily listings and historical summaries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
