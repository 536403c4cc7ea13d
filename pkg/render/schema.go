package render

// schemaJSON is the canonical JSON Schema for the machine-readable
// document rendered by JSON/JSONFile, embedded so ValidateDocument needs
// no file path at runtime. Kept in lockstep with Document/fileDTO/
// changeDTO; a field added to those types belongs here too.
var schemaJSON = []byte(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "semdiff diff document",
  "type": "object",
  "required": ["schema_tag", "metadata", "summary", "files"],
  "properties": {
    "schema_tag": {"type": "string"},
    "metadata": {
      "type": "object",
      "required": ["version", "generated_at", "mode"],
      "properties": {
        "version": {"type": "string"},
        "generated_at": {"type": "integer"},
        "mode": {"type": "string"},
        "profiles": {"type": "array", "items": {"type": "string"}}
      }
    },
    "summary": {"$ref": "#/definitions/stats"},
    "files": {
      "type": "array",
      "items": {"$ref": "#/definitions/file"}
    }
  },
  "definitions": {
    "stats": {
      "type": "object",
      "properties": {
        "total": {"type": "integer"},
        "added": {"type": "integer"},
        "removed": {"type": "integer"},
        "modified": {"type": "integer"},
        "breaking_public": {"type": "integer"},
        "breaking_internal": {"type": "integer"},
        "non_breaking": {"type": "integer"},
        "formatting_only": {"type": "integer"},
        "files_added": {"type": "integer"},
        "files_removed": {"type": "integer"},
        "files_modified": {"type": "integer"},
        "files_errored": {"type": "integer"}
      }
    },
    "file": {
      "type": "object",
      "required": ["status"],
      "properties": {
        "old_path": {"type": "string"},
        "new_path": {"type": "string"},
        "status": {"type": "string"},
        "error": {"type": "string"},
        "profiles": {"type": "array", "items": {"type": "string"}},
        "stats": {"$ref": "#/definitions/stats"},
        "changes": {
          "type": "array",
          "items": {"$ref": "#/definitions/change"}
        }
      }
    },
    "change": {
      "type": "object",
      "required": ["kind", "type", "name", "impact", "visibility"],
      "properties": {
        "kind": {"type": "string"},
        "type": {"type": "string"},
        "name": {"type": "string"},
        "old_location": {"$ref": "#/definitions/span"},
        "new_location": {"$ref": "#/definitions/span"},
        "old_content": {"type": "string"},
        "new_content": {"type": "string"},
        "impact": {"type": "string"},
        "visibility": {"type": "string"},
        "applicable_profiles": {"type": "array", "items": {"type": "string"}},
        "whitespace_issues": {"type": "array", "items": {"type": "string"}},
        "caveats": {"type": "array", "items": {"type": "string"}},
        "children": {
          "type": "array",
          "items": {"$ref": "#/definitions/change"}
        }
      }
    },
    "span": {
      "type": "object",
      "required": ["start_line", "end_line", "start_col", "end_col"],
      "properties": {
        "start_line": {"type": "integer"},
        "end_line": {"type": "integer"},
        "start_col": {"type": "integer"},
        "end_col": {"type": "integer"}
      }
    }
  }
}`)
