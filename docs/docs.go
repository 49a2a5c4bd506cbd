// Package docs holds the OpenAPI document served at /swagger. It mirrors the
// swag annotations on the HTTP handlers.
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
        "/sessions": {
            "post": {
                "description": "Starts an empty conversation from the named template, or the default one",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sessions"
                ],
                "summary": "Create a chat session",
                "parameters": [
                    {
                        "description": "Template selection",
                        "name": "request",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/dto.CreateSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.SessionResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    }
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "description": "Returns the session with its committed messages",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sessions"
                ],
                "summary": "Get a chat session",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SessionResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    }
                }
            },
            "delete": {
                "description": "Removes the session and its cached frames; transcripts are kept",
                "tags": [
                    "sessions"
                ],
                "summary": "Delete a chat session",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/messages": {
            "post": {
                "description": "Runs one chat turn; model failures answer 502 with an apology",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sessions"
                ],
                "summary": "Ask about the video",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Question",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.AskRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.AskResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/transcript": {
            "get": {
                "description": "Lists the committed turns of a session in order",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sessions"
                ],
                "summary": "Get the transcript",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.TranscriptResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/video": {
            "post": {
                "description": "Samples the uploaded clip, caches its frames and restarts the conversation around it",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sessions"
                ],
                "summary": "Attach a video",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Video file (.mjpeg, .ivf, or anything ffmpeg reads)",
                        "name": "video",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.VideoResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "413": {
                        "description": "Request Entity Too Large",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "422": {
                        "description": "Unprocessable Entity",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/shared.APIError"
                        }
                    }
                }
            }
        },
        "/templates": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "templates"
                ],
                "summary": "List conversation templates",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.TemplateListResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "dto.AskRequest": {
            "type": "object",
            "properties": {
                "query": {
                    "type": "string",
                    "example": "What happens in the video?"
                }
            }
        },
        "dto.AskResponse": {
            "type": "object",
            "properties": {
                "reply": {
                    "type": "string",
                    "example": "A dog chases a ball across the lawn."
                },
                "turn": {
                    "$ref": "#/definitions/dto.TurnResponse"
                }
            }
        },
        "dto.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "template": {
                    "type": "string",
                    "example": "llama_3"
                }
            }
        },
        "dto.MessageResponse": {
            "type": "object",
            "properties": {
                "content": {
                    "type": "string",
                    "example": "What happens in the video?"
                },
                "role": {
                    "type": "string",
                    "example": "user"
                }
            }
        },
        "dto.SessionResponse": {
            "type": "object",
            "properties": {
                "clip_id": {
                    "type": "string",
                    "example": "0192d6a4-7c1e-7b3a-9f00-5e2d1c4b3a21"
                },
                "created_at": {
                    "type": "string"
                },
                "frames": {
                    "type": "integer",
                    "example": 30
                },
                "id": {
                    "type": "string",
                    "example": "sess_3f2a9c0d41b84e6f9a1c2d3e4f5a6b7c"
                },
                "last_active_at": {
                    "type": "string"
                },
                "messages": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.MessageResponse"
                    }
                },
                "model": {
                    "type": "string",
                    "example": "llava_llama3_8b_video"
                },
                "status": {
                    "type": "string",
                    "example": "ready",
                    "enum": [
                        "idle",
                        "ready"
                    ]
                },
                "template": {
                    "type": "string",
                    "example": "llama_3"
                },
                "turns": {
                    "type": "integer",
                    "example": 2
                }
            }
        },
        "dto.TemplateListResponse": {
            "type": "object",
            "properties": {
                "default": {
                    "type": "string",
                    "example": "llama_3"
                },
                "templates": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.TemplateResponse"
                    }
                }
            }
        },
        "dto.TemplateResponse": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string",
                    "example": "llama_3"
                },
                "roles": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "sep": {
                    "type": "string",
                    "example": "<|eot_id|>"
                },
                "sep2": {
                    "type": "string"
                },
                "sep_style": {
                    "type": "string",
                    "example": "llama_3",
                    "enum": [
                        "single",
                        "two",
                        "mpt",
                        "plain",
                        "llama_2",
                        "llama_3"
                    ]
                },
                "stop": {
                    "type": "string",
                    "example": "<|eot_id|>"
                },
                "system": {
                    "type": "string"
                }
            }
        },
        "dto.TranscriptResponse": {
            "type": "object",
            "properties": {
                "session_id": {
                    "type": "string",
                    "example": "sess_3f2a9c0d41b84e6f9a1c2d3e4f5a6b7c"
                },
                "turns": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.TurnResponse"
                    }
                }
            }
        },
        "dto.TurnResponse": {
            "type": "object",
            "properties": {
                "clip_id": {
                    "type": "string",
                    "example": "0192d6a4-7c1e-7b3a-9f00-5e2d1c4b3a21"
                },
                "created_at": {
                    "type": "string"
                },
                "frames": {
                    "type": "integer",
                    "example": 30
                },
                "latency_ms": {
                    "type": "integer",
                    "example": 1840
                },
                "model": {
                    "type": "string",
                    "example": "llava_llama3_8b_video"
                },
                "query": {
                    "type": "string",
                    "example": "What happens in the video?"
                },
                "reply": {
                    "type": "string",
                    "example": "A dog chases a ball across the lawn."
                },
                "seq": {
                    "type": "integer",
                    "example": 1
                }
            }
        },
        "dto.VideoResponse": {
            "type": "object",
            "properties": {
                "clip_id": {
                    "type": "string",
                    "example": "0192d6a4-7c1e-7b3a-9f00-5e2d1c4b3a21"
                },
                "frames": {
                    "type": "integer",
                    "example": 30
                },
                "session_id": {
                    "type": "string",
                    "example": "sess_3f2a9c0d41b84e6f9a1c2d3e4f5a6b7c"
                }
            }
        },
        "shared.APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "example": "session_not_found"
                },
                "details": {
                    "type": "object"
                },
                "message": {
                    "type": "string",
                    "example": "session not found"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Video Chat API",
	Description:      "Chat with a video language model about uploaded clips",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
