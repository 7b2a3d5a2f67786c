package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SkillBridge Matcher API",
        "description": "Skill-exchange matching and one-sided skill search",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Matching", "description": "Optimal teacher/learner pairing runs"},
        {"name": "Search", "description": "Free-text skill search"},
        {"name": "Observability", "description": "Probes and counters"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check against Postgres and Redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "JSON snapshot of matching and search counters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/matches/runs": {
            "post": {
                "tags": ["Matching"],
                "summary": "Run matching over active profiles",
                "description": "Synchronous by default; async=true queues the run and returns 202.",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RunMatchingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"},
                    "503": {"description": "Embedding provider or queue unavailable"},
                    "504": {"description": "Run timed out"}
                }
            }
        },
        "/api/v1/matches/runs/{id}": {
            "get": {
                "tags": ["Matching"],
                "summary": "Get a matching run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run"}
                }
            }
        },
        "/api/v1/users/{id}/matches": {
            "get": {
                "tags": ["Matching"],
                "summary": "List persisted matches for a member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Persistence disabled"}
                }
            }
        },
        "/api/v1/compute-match": {
            "post": {
                "tags": ["Search"],
                "summary": "Find teachers (mode=learn) or learners (mode=teach) for a skill",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Top candidates, score 0-100", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query or mode"},
                    "503": {"description": "Embedding provider unavailable"}
                }
            }
        }
    },
    "definitions": {
        "RunMatchingRequest": {
            "type": "object",
            "properties": {
                "strategy": {"type": "string", "enum": ["lexical", "semantic"]},
                "similarityThreshold": {"type": "number"},
                "limit": {"type": "integer"},
                "persist": {"type": "boolean"}
            }
        },
        "SearchRequest": {
            "type": "object",
            "required": ["query", "mode"],
            "properties": {
                "query": {"type": "string"},
                "mode": {"type": "string", "enum": ["learn", "teach"]}
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
