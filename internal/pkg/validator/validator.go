package validator

// Validator checks struct tags on usecase inputs and dependency structs.
type Validator interface {
	Validate(data any) error
}
