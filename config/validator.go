package config

import (
	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/schema"
)

// SchemaValidator validates configuration against the embedded JSON Schema.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator creates a new schema validator, loading the embedded schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: validator}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}

// Validate checks the config against the embedded schema plus semantic rules
// the schema cannot express.
func (c *Config) Validate() error {
	validator, err := NewSchemaValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(c); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "config failed schema validation")
	}

	if c.Sync.MaxWaitMs < c.Sync.DebounceMs {
		return errors.ConfigInvalid("sync.max_wait_ms must be >= sync.debounce_ms")
	}
	return nil
}
