package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OpenBook API",
        "description": "Availability and slot scheduling engine",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Slots", "description": "Bookable slot listing and ad-hoc checks"},
        {"name": "Bookings", "description": "Reservation and attendee self-service"},
        {"name": "Events", "description": "Bookable event management"},
        {"name": "Hosts", "description": "Host availability patterns and calendar sync"},
        {"name": "RoundRobin", "description": "Multi-host assignment balance"}
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
        "/events/{slug}/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "List bookable slots for an event",
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "description": "RFC3339 or YYYY-MM-DD"},
                    {"name": "to", "in": "query", "type": "string", "description": "RFC3339 or YYYY-MM-DD"},
                    {"name": "tz", "in": "query", "type": "string", "description": "IANA timezone for local display times"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/check": {
            "post": {
                "tags": ["Slots"],
                "summary": "Check one candidate slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Reserve a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken or no host available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}": {
            "delete": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking with its manage token",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/events": {
            "post": {
                "tags": ["Events"],
                "summary": "Create a bookable event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{slug}": {
            "get": {
                "tags": ["Events"],
                "summary": "Fetch an event by slug",
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}/bookings": {
            "get": {
                "tags": ["Events"],
                "summary": "List an event's bookings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}/bookings/export": {
            "get": {
                "tags": ["Events"],
                "summary": "Export an event's bookings as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "description": "csv (default) or pdf"}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        },
        "/events/{id}/round-robin": {
            "get": {
                "tags": ["RoundRobin"],
                "summary": "Per-host booking counts for the current period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hosts/{id}/availability": {
            "get": {
                "tags": ["Hosts"],
                "summary": "List a host's availability patterns",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Hosts"],
                "summary": "Add an availability pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePatternRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hosts/{id}/availability/{patternId}": {
            "put": {
                "tags": ["Hosts"],
                "summary": "Update an availability pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "patternId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePatternRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Hosts"],
                "summary": "Soft-disable an availability pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "patternId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/hosts/{id}/calendar/refresh": {
            "post": {
                "tags": ["Hosts"],
                "summary": "Force a busy-snapshot refresh for a host",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Calendar provider fetch failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Slot": {
            "type": "object",
            "properties": {
                "start": {"type": "string"},
                "end": {"type": "string"},
                "start_local": {"type": "string"},
                "end_local": {"type": "string"}
            }
        },
        "CheckAvailabilityRequest": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "host_id": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"}
            },
            "required": ["event_id", "start", "end"]
        },
        "CreateBookingRequest": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "host_id": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "attendee_name": {"type": "string"},
                "attendee_email": {"type": "string"}
            },
            "required": ["event_id", "start", "end", "attendee_name", "attendee_email"]
        },
        "CreateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "host_ids": {"type": "array", "items": {"type": "string"}},
                "duration_minutes": {"type": "integer"},
                "buffer_before_minutes": {"type": "integer"},
                "buffer_after_minutes": {"type": "integer"},
                "min_notice_hours": {"type": "integer"},
                "booking_window_days": {"type": "integer"},
                "start_increment_minutes": {"type": "integer"},
                "max_daily_bookings": {"type": "integer"},
                "max_weekly_bookings": {"type": "integer"},
                "ignore_busy_blocks": {"type": "boolean"},
                "display_timezone": {"type": "string"},
                "round_robin_period": {"type": "string", "enum": ["day", "week", "all"]},
                "round_robin_strategy": {"type": "string", "enum": ["least_booked", "least_booked_available"]}
            },
            "required": ["title", "host_ids", "duration_minutes"]
        },
        "CreatePatternRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_minute": {"type": "integer", "minimum": 0, "maximum": 1440},
                "end_minute": {"type": "integer", "minimum": 0, "maximum": 1440}
            },
            "required": ["day_of_week", "start_minute", "end_minute"]
        },
        "UpdatePatternRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_minute": {"type": "integer", "minimum": 0, "maximum": 1440},
                "end_minute": {"type": "integer", "minimum": 0, "maximum": 1440},
                "is_active": {"type": "boolean"}
            },
            "required": ["day_of_week", "start_minute", "end_minute", "is_active"]
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
