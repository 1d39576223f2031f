package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "MeteoMarine PAD API",
        "description": "Weather/tide dashboard backend with gated CSV export",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Requests", "description": "Download request submission and authorization checks"},
        {"name": "Admin", "description": "Request review and audit export"},
        {"name": "Export", "description": "Gated dataset download"},
        {"name": "Observations", "description": "Dashboard data"}
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
        "/requests": {
            "post": {
                "tags": ["Requests"],
                "summary": "Submit a download request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/pending/count": {
            "get": {
                "tags": ["Requests"],
                "summary": "Count requests awaiting review",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/authorization": {
            "get": {
                "tags": ["Requests"],
                "summary": "Check export authorization for an identity",
                "parameters": [
                    {"name": "email", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Download the filtered dataset as CSV",
                "parameters": [
                    {"name": "email", "in": "query", "required": true, "type": "string"},
                    {"name": "station", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV artifact"},
                    "403": {"description": "Denied with reason code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/observations": {
            "get": {
                "tags": ["Observations"],
                "summary": "List observations, optionally filtered",
                "parameters": [
                    {"name": "station", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/observations/stations": {
            "get": {
                "tags": ["Observations"],
                "summary": "List stations with coordinates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/observations/series": {
            "get": {
                "tags": ["Observations"],
                "summary": "Chart series for one station and parameter",
                "parameters": [
                    {"name": "station", "in": "query", "required": true, "type": "string"},
                    {"name": "parameter", "in": "query", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Admin"],
                "summary": "Authenticate with the shared review secret",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Incorrect password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/requests": {
            "get": {
                "tags": ["Admin"],
                "summary": "List requests by status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/requests/{id}/decision": {
            "post": {
                "tags": ["Admin"],
                "summary": "Accept or refuse a pending request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/audit/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download the full request history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv (default) or pdf"}
                ],
                "responses": {
                    "200": {"description": "Audit artifact"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "SubmitRequest": {
            "type": "object",
            "required": ["requesterName", "organization", "email", "reason"],
            "properties": {
                "requesterName": {"type": "string"},
                "organization": {"type": "string"},
                "email": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "DecideRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["accept", "refuse"]}
            }
        },
        "AdminLoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
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
