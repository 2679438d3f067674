// Package docs holds the swagger document for the bridge API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "HybridHTTP Maintainers",
            "url": "https://github.com/raysh454/hybridhttp"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/plugins/Http": {
            "get": {
                "produces": ["application/json"],
                "tags": ["plugin"],
                "summary": "List plugin methods",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/bridge.MethodsResponse"}
                    }
                }
            }
        },
        "/plugins/Http/{method}": {
            "post": {
                "description": "The body is the method's options object; the response is the method's result.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["plugin"],
                "summary": "Call a plugin method",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Plugin method name",
                        "name": "method",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Method options",
                        "name": "options",
                        "in": "body",
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/bridge.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/bridge.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/bridge.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "bridge.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "unknown plugin method"}
            }
        },
        "bridge.MethodsResponse": {
            "type": "object",
            "properties": {
                "methods": {"type": "array", "items": {"type": "string"}, "example": ["get", "post", "getCookies"]},
                "plugin": {"type": "string", "example": "Http"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "HybridHTTP Bridge API",
	Description:      "Calls the Http plugin (requests, cookies, upload, download) from a web view.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
