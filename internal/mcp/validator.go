package mcp

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/qiniu/commitmcp/pkg/models"
)

// Permissions a tool context can grant. Every tool in this process is
// read-only with respect to the repository; the split is by the kind of
// host resource a tool touches.
const (
	PermGitRead = "git:read" // spawn git for repository inspection
	PermExecRun = "exec:run" // spawn the external linter
	PermFSRead  = "fs:read"  // read bundled documents
)

type toolValidator struct{}

// NewToolValidator creates a tool validator.
func NewToolValidator() ToolValidator {
	return &toolValidator{}
}

// ValidateCall validates a call against the tool's input schema.
func (v *toolValidator) ValidateCall(call *models.ToolCall, tool *models.Tool) error {
	if call == nil {
		return fmt.Errorf("tool call is nil")
	}

	if tool == nil {
		return fmt.Errorf("tool definition is nil")
	}

	if tool.InputSchema != nil {
		if err := v.ValidateArguments(call.Function.Arguments, tool.InputSchema); err != nil {
			return fmt.Errorf("argument validation failed: %w", err)
		}
	}

	return nil
}

// ValidatePermissions validates the call against the context's
// permissions and constraints.
func (v *toolValidator) ValidatePermissions(call *models.ToolCall, tc *models.ToolContext) error {
	if tc == nil {
		return nil // no context, no permission checks
	}

	for _, constraint := range tc.Constraints {
		if v.violatesConstraint(call, constraint) {
			return fmt.Errorf("tool call violates constraint: %s", constraint)
		}
	}

	requiredPermission := v.getRequiredPermission(call.Function.Name)
	if requiredPermission != "" && !slices.Contains(tc.Permissions, requiredPermission) {
		return fmt.Errorf("insufficient permissions: requires %s", requiredPermission)
	}

	return nil
}

// ValidateArguments validates arguments against a JSON schema.
func (v *toolValidator) ValidateArguments(args map[string]interface{}, schema *models.JSONSchema) error {
	if schema == nil {
		return nil
	}

	for _, required := range schema.Required {
		if _, exists := args[required]; !exists {
			return fmt.Errorf("missing required argument: %s", required)
		}
	}

	for key, value := range args {
		if schema.Properties != nil {
			if fieldSchema, exists := schema.Properties[key]; exists {
				if err := v.validateValue(value, fieldSchema, key); err != nil {
					return err
				}
			} else if !schema.AdditionalProperties {
				return fmt.Errorf("unexpected argument: %s", key)
			}
		}
	}

	return nil
}

// validateValue validates a single value against its field schema.
func (v *toolValidator) validateValue(value interface{}, schema *models.JSONSchema, fieldName string) error {
	if value == nil {
		return nil
	}

	switch schema.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %s must be a string, got %T", fieldName, value)
		}

		if len(schema.Enum) > 0 {
			if !slices.Contains(schema.Enum, value) {
				return fmt.Errorf("argument %s must be one of %v, got %v", fieldName, schema.Enum, value)
			}
		}

	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("argument %s must be a number, got %T", fieldName, value)
		}

	case "integer":
		switch value.(type) {
		case int, int32, int64:
		case float64:
			// JSON numbers arrive as float64; reject fractional values.
			if f, ok := value.(float64); ok && f != float64(int64(f)) {
				return fmt.Errorf("argument %s must be an integer, got float %v", fieldName, f)
			}
		default:
			return fmt.Errorf("argument %s must be an integer, got %T", fieldName, value)
		}

	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %s must be a boolean, got %T", fieldName, value)
		}

	case "array":
		slice := reflect.ValueOf(value)
		if slice.Kind() != reflect.Slice && slice.Kind() != reflect.Array {
			return fmt.Errorf("argument %s must be an array, got %T", fieldName, value)
		}

		if schema.Items != nil {
			for i := 0; i < slice.Len(); i++ {
				item := slice.Index(i).Interface()
				if err := v.validateValue(item, schema.Items, fmt.Sprintf("%s[%d]", fieldName, i)); err != nil {
					return err
				}
			}
		}

	case "object":
		objMap, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("argument %s must be an object, got %T", fieldName, value)
		}

		if schema.Properties != nil {
			for key, val := range objMap {
				if propSchema, exists := schema.Properties[key]; exists {
					if err := v.validateValue(val, propSchema, fmt.Sprintf("%s.%s", fieldName, key)); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

// violatesConstraint checks a call against one constraint string.
func (v *toolValidator) violatesConstraint(call *models.ToolCall, constraint string) bool {
	switch constraint {
	case "no-subprocess":
		return v.spawnsSubprocess(call.Function.Name)
	case "no-file-access":
		return v.readsLocalFiles(call.Function.Name)
	default:
		return false
	}
}

// spawnsSubprocess reports whether a tool shells out to git or the
// external linter.
func (v *toolValidator) spawnsSubprocess(toolName string) bool {
	switch toolName {
	case "generate_conventional_commit", "validate_commit_message":
		return true
	}
	return false
}

// readsLocalFiles reports whether a tool reads bundled documents.
func (v *toolValidator) readsLocalFiles(toolName string) bool {
	if strings.Contains(toolName, "documentation") {
		return true
	}
	// The commit context gatherer also loads its guideline document.
	return toolName == "generate_conventional_commit"
}

// getRequiredPermission maps a tool name to the permission it needs.
func (v *toolValidator) getRequiredPermission(toolName string) string {
	switch toolName {
	case "generate_conventional_commit":
		return PermGitRead
	case "validate_commit_message":
		return PermExecRun
	}

	if strings.Contains(toolName, "documentation") {
		return PermFSRead
	}

	return "" // no special permission required
}
