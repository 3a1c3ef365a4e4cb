// Package validator checks request structs against their `validate` tags and
// reports failures per JSON field.
package validator

// Validator validates structs annotated with `validate` tags.
type Validator interface {
	Validate(data any) error
}
