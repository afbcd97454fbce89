// Package docs registers the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/flightbroker/main.go -o cmd/flightbroker/docs
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
        "/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Search flights",
                "parameters": [
                    {"type": "string", "description": "Origin airport code", "name": "from", "in": "query", "required": true},
                    {"type": "string", "description": "Destination airport code", "name": "to", "in": "query", "required": true},
                    {"type": "string", "description": "Departure date DDMMYYYY", "name": "date", "in": "query", "required": true},
                    {"type": "string", "description": "Return date DDMMYYYY", "name": "returnDate", "in": "query"},
                    {"type": "integer", "description": "Adults (default 1)", "name": "adults", "in": "query"},
                    {"type": "integer", "description": "Children", "name": "children", "in": "query"},
                    {"type": "integer", "description": "Infants", "name": "infants", "in": "query"},
                    {"type": "string", "description": "e, pe, b, pb or f", "name": "class", "in": "query"},
                    {"type": "integer", "description": "1 OneWay, 2 Return, 3 MultiCity", "name": "journeyType", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/flights/fare-rule": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Fare rules for a search result",
                "parameters": [{"description": "Result reference", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/flight.ResultRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/flights/fare-quote": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Re-price a search result",
                "parameters": [{"description": "Result reference", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/flight.ResultRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/flights/ssr": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Seat map, baggage and meal options",
                "parameters": [{"description": "Result reference", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/flight.ResultRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/flights/book": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Book and ticket a fare",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/user/bookings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Booking history",
                "parameters": [{"type": "string", "description": "Google account id", "name": "googleId", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Save a booking record",
                "responses": {"201": {"description": "Created"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/user/bookings/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Booking details",
                "parameters": [
                    {"type": "string", "description": "Booking id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Google account id", "name": "googleId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/appbooking": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Record a paid app booking before ticketing",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/save-booking-payload": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["booking-sessions"],
                "summary": "Park a booking attempt across the payment redirect",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/get-booking-payload/{hash}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["booking-sessions"],
                "summary": "Fetch a parked booking attempt",
                "parameters": [{"type": "string", "description": "Booking hash", "name": "hash", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/retrieve-booking-by-hash": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["booking-sessions"],
                "summary": "Fetch a parked booking attempt by hash in the body",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/auth/google": {
            "get": {
                "tags": ["auth"],
                "summary": "Start Google sign-in",
                "parameters": [{"type": "string", "description": "Redirect target after sign-in", "name": "state", "in": "query"}],
                "responses": {"307": {"description": "Redirect"}}
            }
        },
        "/auth/google/callback": {
            "get": {
                "tags": ["auth"],
                "summary": "Google sign-in callback",
                "responses": {"307": {"description": "Redirect"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/auth/user": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/auth/logout": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "flight.ResultRequest": {
            "type": "object",
            "properties": {
                "traceId": {"type": "string"},
                "resultIndex": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Flight Broker API",
	Description:      "Flight search, fare lookups and two-phase booking against a GDS supplier.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
