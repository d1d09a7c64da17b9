// Package validation validates configuration and request structs using
// go-playground/validator struct tags.
//
// Field names in error messages follow the mapstructure (config) or json
// tag of the field, falling back to snake_case:
//
//	type RegistryConfig struct {
//	    Type string `mapstructure:"type" validate:"omitempty,oneof=memory distributed"`
//	}
//	err := validation.Validate(cfg)
package validation
