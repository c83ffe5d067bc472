// Package swagger registers the OpenAPI 2.0 document of the shop API served
// under /swagger. It is written by hand and kept in step with the handlers.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/members": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "List members",
                "parameters": [
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListResponse-MemberResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "description": "Registers a member; names are unique",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Join member",
                "parameters": [
                    {"description": "Member", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/JoinMemberRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/MemberResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/members/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Get member",
                "parameters": [
                    {"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MemberResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Rename member",
                "parameters": [
                    {"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true},
                    {"description": "New name", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RenameMemberRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MemberResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "List items",
                "parameters": [
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListResponse-ItemResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Create item",
                "parameters": [
                    {"description": "Item", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ItemResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ItemResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Update item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Changes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ItemResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Category tree",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/CategoryResponse"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Create category",
                "parameters": [
                    {"description": "Category", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCategoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CategoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/categories/{id}/items": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["categories"],
                "summary": "Link item to category",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "id", "in": "path", "required": true},
                    {"description": "Item", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LinkItemRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/orders": {
            "get": {
                "description": "Filters by status and member name substring (case-insensitive); at most 1000 orders",
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Search orders",
                "parameters": [
                    {"type": "string", "description": "ORDERED or CANCELLED", "name": "status", "in": "query"},
                    {"type": "string", "description": "Member name substring", "name": "member", "in": "query"},
                    {"type": "string", "default": "join", "description": "naive, join, join-all, projection or flat", "name": "strategy", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"},
                    {"type": "integer", "description": "Limit", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListResponse-OrderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "description": "Prices each line at the current item price, takes stock and ships to the member address",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place order",
                "parameters": [
                    {"description": "Order", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaceOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/OrderResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/orders/flat": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Flat order rows",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/orders/summaries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Order summaries",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/cancel": {
            "post": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Cancel order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/delivery/complete": {
            "post": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Complete delivery",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/session": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["session"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Member name", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MemberResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["session"],
                "summary": "Sign out",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/me/orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Orders of the signed-in member",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListResponse-OrderResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Address": {
            "type": "object",
            "properties": {
                "city": {"type": "string", "example": "Seoul"},
                "street": {"type": "string", "example": "Teheran-ro 1"},
                "zipcode": {"type": "string", "example": "06236"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "order not found"}
            }
        },
        "JoinMemberRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "example": "userA"},
                "address": {"$ref": "#/definitions/Address"}
            }
        },
        "RenameMemberRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "example": "userC"}
            }
        },
        "MemberResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "name": {"type": "string", "example": "userA"},
                "address": {"$ref": "#/definitions/Address"},
                "created_at": {"type": "string", "example": "2024-01-15T10:30:00Z"}
            }
        },
        "SignInRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "example": "userA"}
            }
        },
        "CreateItemRequest": {
            "type": "object",
            "required": ["kind", "name"],
            "properties": {
                "kind": {"type": "string", "example": "book"},
                "name": {"type": "string", "example": "JPA1 BOOK"},
                "price": {"type": "integer", "example": 10000},
                "stock": {"type": "integer", "example": 100},
                "author": {"type": "string"},
                "isbn": {"type": "string"},
                "artist": {"type": "string"},
                "etc": {"type": "string"},
                "director": {"type": "string"},
                "actor": {"type": "string"}
            }
        },
        "UpdateItemRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "price": {"type": "integer"},
                "stock": {"type": "integer"}
            }
        },
        "ItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string", "example": "B"},
                "name": {"type": "string", "example": "JPA1 BOOK"},
                "price": {"type": "integer", "example": 10000},
                "stock": {"type": "integer", "example": 99}
            }
        },
        "CreateCategoryRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "example": "books"},
                "parent_id": {"type": "string"}
            }
        },
        "LinkItemRequest": {
            "type": "object",
            "required": ["item_id"],
            "properties": {
                "item_id": {"type": "string"}
            }
        },
        "CategoryResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "children": {"type": "array", "items": {"$ref": "#/definitions/CategoryResponse"}}
            }
        },
        "OrderLineRequest": {
            "type": "object",
            "required": ["item_id"],
            "properties": {
                "item_id": {"type": "string"},
                "count": {"type": "integer", "example": 2}
            }
        },
        "PlaceOrderRequest": {
            "type": "object",
            "required": ["member_id", "lines"],
            "properties": {
                "member_id": {"type": "string"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/OrderLineRequest"}}
            }
        },
        "OrderResponse": {
            "type": "object",
            "properties": {
                "order_id": {"type": "string"},
                "member_name": {"type": "string", "example": "userA"},
                "order_date": {"type": "string"},
                "status": {"type": "string", "example": "ORDERED"},
                "address": {"$ref": "#/definitions/Address"},
                "lines": {"type": "array", "items": {"type": "object"}},
                "delivery_status": {"type": "string", "example": "READY"},
                "total_price": {"type": "integer", "example": 50000}
            }
        },
        "ListResponse-MemberResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "total": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/MemberResponse"}}
            }
        },
        "ListResponse-ItemResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "total": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/ItemResponse"}}
            }
        },
        "ListResponse-OrderResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/OrderResponse"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "ghshop API",
	Description:      "Members, catalog, categories and orders of the shop, with selectable order fetch strategies.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
