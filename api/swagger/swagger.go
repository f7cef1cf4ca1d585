package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA ADP Timetable API",
        "description": "Weekly timetable generation, validation and lesson reminders.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Timetable", "description": "Weekly grid, generation and lesson edits"},
        {"name": "Reminders", "description": "Lesson reminders for teachers"}
    ],
    "paths": {
        "/timetable/settings/{yearId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get grid settings of an academic year",
                "parameters": [
                    {"name": "yearId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timetable"],
                "summary": "Replace grid settings; lessons that no longer fit are removed",
                "parameters": [
                    {"name": "yearId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GridSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid grid configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/grid": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Preview the period grid",
                "parameters": [
                    {"name": "academicYearId", "in": "query", "type": "string"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"},
                    {"name": "periodMinutes", "in": "query", "type": "integer"},
                    {"name": "breaks", "in": "query", "type": "array", "items": {"type": "integer"}, "collectionFormat": "multi"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the week of an academic year or of selected classes",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Week replaced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown class", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/validate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Check a proposed lesson without saving it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verdict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/entries": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Validate and save one lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Rejected or modified concurrently", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/entries/{id}": {
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete one lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/classes/{classId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly grid of a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/classes/{classId}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a class timetable",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/timetable/teachers/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly lessons of a teacher; use me for the caller",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/reminders/run": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Scan for upcoming lessons and send reminders now",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReminderRunRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GridSettingsRequest": {
            "type": "object",
            "properties": {
                "startTime": {"type": "string", "example": "07:00"},
                "endTime": {"type": "string", "example": "13:00"},
                "periodMinutes": {"type": "integer", "example": 45},
                "breakPeriods": {"type": "array", "items": {"type": "integer"}, "example": [3, 6]}
            },
            "required": ["startTime", "endTime", "periodMinutes"]
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "academicYearId": {"type": "string"},
                "classIds": {"type": "array", "items": {"type": "string"}},
                "seed": {"type": "integer", "format": "int64"}
            },
            "required": ["academicYearId"]
        },
        "SlotRequest": {
            "type": "object",
            "properties": {
                "academicYearId": {"type": "string"},
                "editOf": {"type": "string"},
                "version": {"type": "integer"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "day": {"type": "string", "enum": ["monday", "tuesday", "wednesday", "thursday", "friday"]},
                "period": {"type": "integer"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            },
            "required": ["academicYearId", "classId", "subjectId", "day", "period"]
        },
        "ReminderRunRequest": {
            "type": "object",
            "properties": {
                "academicYearId": {"type": "string"},
                "at": {"type": "string", "format": "date-time"}
            },
            "required": ["academicYearId"]
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
