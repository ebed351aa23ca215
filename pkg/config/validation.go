package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a Config for structural correctness: required fields,
// enumerated values, and range bounds. Struct-tag rules are enforced by
// validator/v10; a handful of cross-field rules (root must be absolute)
// are checked separately since they don't fit a single tag.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Project.Root != "" && !filepath.IsAbs(cfg.Project.Root) {
		return fmt.Errorf("project.root must be an absolute path, got %q", cfg.Project.Root)
	}

	return nil
}

// formatValidationError collapses validator.ValidationErrors into one
// readable message naming every failing field and the rule it broke.
func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
