// Package docs is generated by swag from the handler annotations; regenerate
// it with `swag init -g internal/platform/httpserver/server.go` after editing them.
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
        "/v1/red-packets": {
            "get": {
                "description": "Lists packets in ascending id order with cursor pagination.",
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "List red packets",
                "parameters": [
                    {"type": "string", "description": "Cursor token", "name": "cursor", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ListPacketsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Escrows amount and splits it into count random shares. Count defaults to 5.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Create a red packet",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Create payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.CreatePacketRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httptransport.CreatePacketResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/v1/red-packets/count": {
            "get": {
                "description": "Returns the number of packets created, which is also the next id.",
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Count red packets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.PacketCountResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/v1/red-packets/{packet_id}": {
            "get": {
                "description": "Returns the packet view. Unknown ids return the empty view with exists=false.",
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Get red packet info",
                "parameters": [
                    {"type": "integer", "description": "Packet id", "name": "packet_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.GetPacketResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/v1/red-packets/{packet_id}/activity": {
            "get": {
                "description": "Returns created/claimed entries projected from packet events.",
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Get packet activity feed",
                "parameters": [
                    {"type": "integer", "description": "Packet id", "name": "packet_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.PacketActivityResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/v1/red-packets/{packet_id}/claim": {
            "post": {
                "description": "Withdraws the next share for the caller. One claim per identity; the creator cannot claim.",
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Claim a share of a red packet",
                "parameters": [
                    {"type": "string", "description": "Caller identity", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "Packet id", "name": "packet_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ClaimPacketResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/v1/red-packets/{packet_id}/claims/{identity}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Check whether an identity claimed a packet",
                "parameters": [
                    {"type": "integer", "description": "Packet id", "name": "packet_id", "in": "path", "required": true},
                    {"type": "string", "description": "Claimant identity", "name": "identity", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.HasClaimedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/v1/red-packets/{packet_id}/shares": {
            "get": {
                "description": "Returns every precomputed share in claim order, including claimed ones.",
                "produces": ["application/json"],
                "tags": ["red-packets"],
                "summary": "Get the share vector of a packet",
                "parameters": [
                    {"type": "integer", "description": "Packet id", "name": "packet_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ShareAmountsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.ActivityDTO": {
            "type": "object",
            "properties": {
                "actor": {"type": "string"},
                "amount": {"type": "string"},
                "amount_display": {"type": "string"},
                "event_id": {"type": "string"},
                "occurred_at": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "httptransport.ClaimPacketResponse": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "amount_display": {"type": "string"},
                "claimer": {"type": "string"},
                "packet_id": {"type": "integer"},
                "remaining_amount": {"type": "string"},
                "remaining_packets": {"type": "integer"}
            }
        },
        "httptransport.CreatePacketRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "count": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "httptransport.CreatePacketResponse": {
            "type": "object",
            "properties": {
                "amount_display": {"type": "string"},
                "packet_count": {"type": "integer"},
                "packet_id": {"type": "integer"},
                "replayed": {"type": "boolean"},
                "share_amounts": {"type": "array", "items": {"type": "string"}},
                "total_amount": {"type": "string"}
            }
        },
        "httptransport.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "httptransport.GetPacketResponse": {
            "type": "object",
            "properties": {
                "exists": {"type": "boolean"},
                "item": {"$ref": "#/definitions/httptransport.PacketDTO"}
            }
        },
        "httptransport.HasClaimedResponse": {
            "type": "object",
            "properties": {
                "claimed": {"type": "boolean"},
                "identity": {"type": "string"},
                "packet_id": {"type": "integer"}
            }
        },
        "httptransport.ListPacketsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/httptransport.PacketDTO"}},
                "next_cursor": {"type": "string"}
            }
        },
        "httptransport.PacketActivityResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/httptransport.ActivityDTO"}},
                "packet_id": {"type": "integer"}
            }
        },
        "httptransport.PacketCountResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"}
            }
        },
        "httptransport.PacketDTO": {
            "type": "object",
            "properties": {
                "claimants": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "creator": {"type": "string"},
                "message": {"type": "string"},
                "packet_count": {"type": "integer"},
                "packet_id": {"type": "integer"},
                "remaining_amount": {"type": "string"},
                "remaining_amount_display": {"type": "string"},
                "remaining_packets": {"type": "integer"},
                "status": {"type": "string"},
                "total_amount": {"type": "string"},
                "total_amount_display": {"type": "string"}
            }
        },
        "httptransport.ShareAmountsResponse": {
            "type": "object",
            "properties": {
                "packet_id": {"type": "integer"},
                "share_amounts": {"type": "array", "items": {"type": "string"}}
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
	Title:            "Red Packet API",
	Description:      "Escrow a deposit, split it into random shares and let claimants withdraw one share each.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
