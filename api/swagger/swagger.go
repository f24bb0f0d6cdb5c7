package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable scheduling: manual assignment workflow, conflict detection and automatic generation",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Timetable",
            "description": "Time grid and schedule store"
        },
        {
            "name": "Workflow",
            "description": "Manual assignment sessions"
        },
        {
            "name": "Generator",
            "description": "Automatic generation"
        },
        {
            "name": "Registry",
            "description": "Teachers, subjects and groups"
        },
        {
            "name": "Exports",
            "description": "CSV and PDF timetables"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Degraded"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/timegrid": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Weekly time grid",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timegrid/shifts/{shift}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Blocks of a shift",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Unknown shift",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "shift",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "MORNING or AFTERNOON"
                    }
                ]
            }
        },
        "/api/v1/registry/teachers": {
            "get": {
                "tags": [
                    "Registry"
                ],
                "summary": "List teachers with qualified subjects",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/registry/subjects": {
            "get": {
                "tags": [
                    "Registry"
                ],
                "summary": "List subjects",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/registry/groups": {
            "get": {
                "tags": [
                    "Registry"
                ],
                "summary": "List class groups",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/registry/refresh": {
            "post": {
                "tags": [
                    "Registry"
                ],
                "summary": "Drop cached registry lists",
                "responses": {
                    "204": {
                        "description": "Refreshed"
                    }
                }
            }
        },
        "/api/v1/assignments": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "List assignments",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "groupId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "weekday",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ]
            }
        },
        "/api/v1/assignments/conflicts": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Check a candidate assignment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConflictCheckRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/assignments/{id}": {
            "patch": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Update an assignment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Schedule conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateAssignmentRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Delete an assignment",
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/teachers/{id}/assignments": {
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Remove every assignment of a teacher",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/groups/{id}/assignments": {
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Remove every assignment of a group",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions": {
            "post": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Open a manual assignment session",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/workflow/sessions/{id}": {
            "get": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Get a session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/subjects": {
            "get": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Subjects eligible for the anchor",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/entity": {
            "post": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Anchor on a teacher or group",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectEntityRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/subject": {
            "post": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Select the subject",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectSubjectRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/cell": {
            "post": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Tap a grid cell",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Schedule conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ChooseCellRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Remove the anchor's assignment on a cell",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Confirmation required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "weekday",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "block",
                        "in": "query",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "confirm",
                        "in": "query",
                        "type": "boolean",
                        "required": false
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/counterpart": {
            "post": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Choose the group and commit",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Schedule conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectCounterpartRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/cancel": {
            "post": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Abandon the pending cell",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/workflow/sessions/{id}/assignments": {
            "delete": {
                "tags": [
                    "Workflow"
                ],
                "summary": "Remove every assignment of the anchor",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/generator/config": {
            "get": {
                "tags": [
                    "Generator"
                ],
                "summary": "Generator configuration",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/generator/config/teachers/{id}": {
            "put": {
                "tags": [
                    "Generator"
                ],
                "summary": "Replace a teacher's plan",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PutTeacherPlanRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Generator"
                ],
                "summary": "Remove a teacher's plan",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "No plan",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/generator/config/shifts": {
            "put": {
                "tags": [
                    "Generator"
                ],
                "summary": "Select a shift",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SetShiftRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/generator/preview": {
            "post": {
                "tags": [
                    "Generator"
                ],
                "summary": "Generate without committing",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/generator/run": {
            "post": {
                "tags": [
                    "Generator"
                ],
                "summary": "Replace the schedule with a generated one",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "408": {
                        "description": "Cancelled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exports/timetable": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a timetable",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "entityType",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "entityId",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Exports"
                ],
                "summary": "Publish a timetable behind a signed link",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExportTimetableRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/exports/files/{token}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Fetch a published export",
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Signed token"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "404": {
                        "description": "Invalid or expired"
                    }
                }
            }
        }
    },
    "definitions": {
        "ConflictCheckRequest": {
            "type": "object",
            "properties": {
                "weekday": {
                    "type": "string"
                },
                "start_time": {
                    "type": "string"
                },
                "end_time": {
                    "type": "string"
                },
                "teacher_id": {
                    "type": "string"
                },
                "group_id": {
                    "type": "string"
                },
                "ignore_id": {
                    "type": "string"
                }
            },
            "required": [
                "weekday",
                "start_time",
                "end_time"
            ]
        },
        "UpdateAssignmentRequest": {
            "type": "object",
            "properties": {
                "subject_id": {
                    "type": "string"
                },
                "teacher_id": {
                    "type": "string"
                },
                "group_id": {
                    "type": "string"
                }
            }
        },
        "SelectEntityRequest": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string",
                    "enum": [
                        "TEACHER",
                        "GROUP"
                    ]
                },
                "id": {
                    "type": "string"
                }
            },
            "required": [
                "kind",
                "id"
            ]
        },
        "SelectSubjectRequest": {
            "type": "object",
            "properties": {
                "subject_id": {
                    "type": "string"
                }
            },
            "required": [
                "subject_id"
            ]
        },
        "ChooseCellRequest": {
            "type": "object",
            "properties": {
                "weekday": {
                    "type": "string"
                },
                "block_index": {
                    "type": "integer"
                }
            },
            "required": [
                "weekday",
                "block_index"
            ]
        },
        "SelectCounterpartRequest": {
            "type": "object",
            "properties": {
                "group_id": {
                    "type": "string"
                }
            },
            "required": [
                "group_id"
            ]
        },
        "SubjectPlan": {
            "type": "object",
            "properties": {
                "subject_id": {
                    "type": "string"
                },
                "group_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "weekly_hours": {
                    "type": "integer"
                }
            },
            "required": [
                "subject_id"
            ]
        },
        "PutTeacherPlanRequest": {
            "type": "object",
            "properties": {
                "subjects": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SubjectPlan"
                    }
                }
            }
        },
        "SetShiftRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {
                    "type": "string"
                },
                "subject_id": {
                    "type": "string"
                },
                "group_id": {
                    "type": "string"
                },
                "shift": {
                    "type": "string",
                    "enum": [
                        "MORNING",
                        "AFTERNOON"
                    ]
                }
            },
            "required": [
                "teacher_id",
                "subject_id",
                "group_id",
                "shift"
            ]
        },
        "ExportTimetableRequest": {
            "type": "object",
            "properties": {
                "entity_type": {
                    "type": "string"
                },
                "entity_id": {
                    "type": "string"
                },
                "format": {
                    "type": "string",
                    "enum": [
                        "csv",
                        "pdf"
                    ]
                }
            },
            "required": [
                "entity_type",
                "entity_id"
            ]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
