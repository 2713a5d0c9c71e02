// Package docs holds the OpenAPI description served at /swagger/index.html.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "summary": "Welcome banner",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.WelcomeResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service and model readiness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.HealthResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "summary": "Request and prediction counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/predict": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "summary": "Classify an asteroid document",
                "parameters": [
                    {
                        "type": "file",
                        "description": "YAML document (.yaml or .yml)",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.PredictionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "analysis.ConfidenceBody": {
            "type": "object",
            "properties": {
                "hazard_probability": {"type": "number"},
                "hazard_probability_percent": {"type": "string"},
                "non_hazard_probability": {"type": "number"},
                "non_hazard_probability_percent": {"type": "string"}
            }
        },
        "analysis.InfluentialFeature": {
            "type": "object",
            "properties": {
                "feature": {"type": "string"},
                "actual_value": {"type": "number"},
                "contribution_score": {"type": "number"},
                "impact_direction": {"type": "string", "enum": ["INCREASES", "DECREASES"]},
                "explanation": {"type": "string"}
            }
        },
        "analysis.InterpretabilityBody": {
            "type": "object",
            "properties": {
                "confidence_level": {"type": "string", "enum": ["LOW", "MODERATE", "HIGH", "VERY HIGH"]},
                "confidence_score": {"type": "number"},
                "top_5_influential_features": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/analysis.InfluentialFeature"}
                },
                "summary": {"type": "string"}
            }
        },
        "analysis.PredictionResponse": {
            "type": "object",
            "properties": {
                "classification": {"type": "string", "enum": ["HAZARDOUS", "NON-HAZARDOUS"]},
                "is_hazardous": {"type": "boolean"},
                "confidence": {"$ref": "#/definitions/analysis.ConfidenceBody"},
                "interpretability": {"$ref": "#/definitions/analysis.InterpretabilityBody"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "category": {"type": "string"},
                "detail": {"type": "string"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "main.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["ok", "degraded"]},
                "model_ready": {"type": "boolean"},
                "features": {"type": "integer"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "main.WelcomeResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hazardous Asteroid Classification API",
	Description:      "Classifies near-Earth objects from uploaded YAML documents and explains the result.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
