package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Akademik Core API",
        "description": "Academic scheduling and capacity allocation service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ClassGroups", "description": "Capacity-limited class groups"},
        {"name": "Assignments", "description": "Student period placement"},
        {"name": "Quotas", "description": "Major admission windows and limits"},
        {"name": "ScheduleTemplates", "description": "Weekly course slots"},
        {"name": "ClassSessions", "description": "Dated session instances"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/class-groups": {
            "get": {
                "tags": ["ClassGroups"],
                "summary": "List class groups with live seat usage",
                "parameters": [
                    {"name": "majorId", "in": "query", "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "shift", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ClassGroups"],
                "summary": "Create a class group",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name already taken"}
                }
            }
        },
        "/class-groups/allocate": {
            "post": {
                "tags": ["ClassGroups"],
                "summary": "Find or create a class group with free seats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admission window closed"},
                    "409": {"description": "Admission limit reached"}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Place a student into a specific class group",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Class group full"},
                    "422": {"description": "Group does not belong to the requested period"}
                }
            }
        },
        "/assignments/auto": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Allocate a group and place the student in one call",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/majors/{majorId}/quota": {
            "get": {
                "tags": ["Quotas"],
                "summary": "Report admission window and remaining seats",
                "parameters": [
                    {"name": "majorId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule-templates": {
            "get": {
                "tags": ["ScheduleTemplates"],
                "summary": "List schedule templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ScheduleTemplates"],
                "summary": "Create a schedule template",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule-templates/availability": {
            "post": {
                "tags": ["ScheduleTemplates"],
                "summary": "Check whether a weekly room slot is free",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule-templates/{id}": {
            "get": {
                "tags": ["ScheduleTemplates"],
                "summary": "Get a schedule template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["ScheduleTemplates"],
                "summary": "Update a schedule template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ScheduleTemplates"],
                "summary": "Delete a schedule template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/schedule-templates/{id}/generate": {
            "post": {
                "tags": ["ScheduleTemplates"],
                "summary": "Generate sessions from one template over a date range",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid date range"}
                }
            }
        },
        "/class-sessions": {
            "get": {
                "tags": ["ClassSessions"],
                "summary": "List class sessions",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ClassSessions"],
                "summary": "Create an ad-hoc class session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session already occupies this slot"}
                }
            }
        },
        "/class-sessions/generate": {
            "post": {
                "tags": ["ClassSessions"],
                "summary": "Generate sessions from weekly templates over a date range",
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid date range"}
                }
            }
        },
        "/class-sessions/{id}": {
            "delete": {
                "tags": ["ClassSessions"],
                "summary": "Delete a class session without recorded attendance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Attendance already recorded"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
