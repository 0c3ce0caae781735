// Package docs provides the OpenAPI document served at /swagger/doc.json.
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
        "/api/rewards/v1/epochs": {
            "post": {
                "tags": ["rewards"],
                "summary": "Open a new reward epoch",
                "parameters": [
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/api/rewards/v1/epochs/current": {
            "get": {
                "tags": ["rewards"],
                "summary": "Read the current epoch number",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/rewards/v1/epochs/{epoch}": {
            "get": {
                "tags": ["rewards"],
                "summary": "Read an epoch snapshot",
                "parameters": [
                    {"type": "integer", "name": "epoch", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/rewards/v1/epochs/{epoch}/users": {
            "post": {
                "tags": ["rewards"],
                "summary": "Register a user's pool share for the current epoch",
                "parameters": [
                    {"type": "integer", "name": "epoch", "in": "path", "required": true},
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/rewards/v1/epochs/{epoch}/users/{user_id}": {
            "get": {
                "tags": ["rewards"],
                "summary": "Read a user's entitlement and calculated reward",
                "parameters": [
                    {"type": "integer", "name": "epoch", "in": "path", "required": true},
                    {"type": "string", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/rewards/v1/claims": {
            "post": {
                "tags": ["rewards"],
                "summary": "Claim the caller's reward for the current epoch",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No rewards allocated"},
                    "409": {"description": "Already claimed or insufficient balance"},
                    "429": {"description": "Rate limited"},
                    "502": {"description": "Payout failed"}
                }
            }
        },
        "/api/rewards/v1/claims/preflight": {
            "get": {
                "tags": ["rewards"],
                "summary": "Check whether the caller could claim right now",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/rewards/v1/config": {
            "get": {
                "tags": ["rewards"],
                "summary": "Read reward pool configuration",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/rewards/v1/config/max-user-pool-percentage": {
            "put": {
                "tags": ["rewards"],
                "summary": "Update the per-user pool share cap",
                "parameters": [
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/treasury/v1/deposits": {
            "post": {
                "tags": ["treasury"],
                "summary": "Deposit funds into the reward pool",
                "parameters": [
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/treasury/v1/balance": {
            "get": {
                "tags": ["treasury"],
                "summary": "Read the live reward pool balance",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/v1/administrators": {
            "get": {
                "tags": ["admin"],
                "summary": "List administrators",
                "parameters": [
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/v1/administrators/{user_id}": {
            "post": {
                "tags": ["admin"],
                "summary": "Grant the administrator capability",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            },
            "delete": {
                "tags": ["admin"],
                "summary": "Revoke the administrator capability",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-Admin-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Meridian Epoch Rewards API",
	Description:      "Epoch-based reward pool ledger: epochs, entitlements, claims, treasury, administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
