// Package validator validates usecase inputs with go-playground/validator
// and renders failures as a snake_case field to message map.
package validator
