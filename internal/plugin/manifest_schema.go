package plugin

// ManifestSchema is the JSON Schema the published manifest must satisfy.
const ManifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["plugin_id", "name", "version", "min_host", "capabilities"],
  "properties": {
    "plugin_id": {
      "type": "string",
      "pattern": "^[a-z0-9]+(\\.[a-z0-9-]+)+$",
      "description": "Reverse-DNS plugin identifier"
    },
    "name": {
      "type": "string",
      "minLength": 1
    },
    "version": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+$",
      "description": "Semver version"
    },
    "description": {
      "type": "string"
    },
    "license": {
      "type": "string"
    },
    "authors": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "min_host": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+$"
    },
    "min_macos": {
      "type": "string",
      "pattern": "^\\d+(\\.\\d+)*$"
    },
    "secrets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "label": {"type": "string"},
          "description": {"type": "string"},
          "required": {"type": "boolean"},
          "url": {"type": "string"}
        }
      }
    },
    "capabilities": {
      "type": "object",
      "required": ["tools"],
      "properties": {
        "tools": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "description", "parameters", "requirements", "permission"],
            "properties": {
              "id": {
                "type": "string",
                "pattern": "^[a-z][a-z0-9_]*$"
              },
              "description": {
                "type": "string",
                "minLength": 1
              },
              "parameters": {
                "type": "object",
                "required": ["type", "properties"],
                "properties": {
                  "type": {"const": "object"},
                  "properties": {"type": "object"},
                  "required": {
                    "type": "array",
                    "items": {"type": "string"}
                  }
                }
              },
              "requirements": {
                "type": "array",
                "items": {
                  "type": "string",
                  "enum": ["filesystem:read", "filesystem:write"]
                }
              },
              "permission": {
                "type": "string",
                "enum": ["auto", "ask", "deny"]
              }
            }
          }
        }
      }
    }
  }
}`
