package scenarios

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds the result of validating a scenario.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Err joins the validation errors, or returns nil when the scenario is valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func (r *ValidationResult) add(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationError{field, fmt.Sprintf(format, args...)})
}

// Validate checks a scenario for structural errors.
func Validate(s *Scenario) *ValidationResult {
	result := &ValidationResult{}

	if s.Name == "" {
		result.add("name", "required field is missing")
	}
	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			result.add("timeout", "must be a duration (e.g., 30s): %v", err)
		}
	}
	if len(s.Steps) == 0 {
		result.add("steps", "at least one step is required")
	}

	for i, step := range s.Steps {
		validateStep(fmt.Sprintf("steps[%d]", i), step, result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateStep(field string, step Step, result *ValidationResult) {
	if step.Name == "" {
		result.add(field+".name", "required field is missing")
	}

	switch {
	case step.Method != "" && step.Sleep != "":
		result.add(field, "method and sleep are mutually exclusive")
	case step.Method == "" && step.Sleep == "":
		result.add(field, "one of method or sleep is required")
	case step.Sleep != "":
		if d, err := time.ParseDuration(step.Sleep); err != nil || d < 0 {
			result.add(field+".sleep", "must be a non-negative duration (e.g., 4s)")
		}
		if len(step.Expect) > 0 {
			result.add(field+".expect", "sleep steps take no expectations")
		}
		return
	}

	switch step.ID.(type) {
	case nil, int, string:
	default:
		result.add(field+".id", "must be an integer or a string")
	}

	for key, value := range step.Expect {
		validateExpectation(field+".expect."+key, key, value, result)
	}
}

func validateExpectation(field, key string, value interface{}, result *ValidationResult) {
	switch key {
	case ExpectError:
		if _, ok := value.(int); value != nil && !ok {
			result.add(field, "must be null or an error code")
		}
	case ExpectID, ExpectResult:
	case ExpectResultContains, ExpectResultNotContains:
		if _, ok := value.(string); !ok {
			result.add(field, "must be a string")
		}
	case ExpectMinDuration, ExpectMaxDuration:
		s, ok := value.(string)
		if !ok {
			result.add(field, "must be a duration string")
			return
		}
		if _, err := time.ParseDuration(s); err != nil {
			result.add(field, "must be a duration (e.g., 4s): %v", err)
		}
	case ExpectSchema:
		if value != SchemaJSONRPC {
			result.add(field, "unknown schema %v (want %q)", value, SchemaJSONRPC)
		}
	case ExpectScript:
		if s, ok := value.(string); !ok || s == "" {
			result.add(field, "must be a non-empty string")
		}
	default:
		result.add(field, "unknown expectation")
	}
}
