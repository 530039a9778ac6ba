// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// LoadRegistry reads and validates the activity catalog. Schemas are
// checked at load time so a malformed entry fails startup instead of a
// job.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks every activity for a task type and compilable
// input/output schemas.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no task type", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		seen[a.TaskType] = true

		if err := compileSchema(a.InputSchema); err != nil {
			return fmt.Errorf("activity %q input schema: %w", a.ID, err)
		}
		if err := compileSchema(a.OutputSchema); err != nil {
			return fmt.Errorf("activity %q output schema: %w", a.ID, err)
		}
	}
	return nil
}

func compileSchema(schema map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	return err
}

// FindByTaskType returns the activity registered for a task type.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}
