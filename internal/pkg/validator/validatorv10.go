package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/campusguard/internal/pkg/strcase"
)

var (
	rePassword   = regexp.MustCompile(`^.{8,72}$`)
	reOTPCode    = regexp.MustCompile(`^[0-9]{6,8}$`)
	reBackupCode = regexp.MustCompile(`^[0-9A-Za-z]{4}(-?[0-9A-Za-z]{4}){1,3}$`)
)

var ErrTranslatorNotFound = errors.New("translator not found")

// V10ValidationError maps snake_case field names to messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator implements Validator with English messages.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldName)

	enLang := en.New()
	enTrans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	rules := []struct {
		tag string
		re  *regexp.Regexp
		msg string
	}{
		{tag: "password", re: rePassword, msg: "{0} must be 8-72 characters"},
		{tag: "otpcode", re: reOTPCode, msg: "{0} must be a 6 to 8 digit code"},
		{tag: "backupcode", re: reBackupCode, msg: "{0} must look like XXXX-XXXX"},
	}
	for _, r := range rules {
		if err := registerPattern(validate, enTrans, r.tag, r.re, r.msg); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

// Validate returns V10ValidationError when data breaks its tags.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out
}

// fieldName prefers the json tag and falls back to the snake_case Go name.
func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return strcase.ToLowerSnake(f.Name)
	default:
		return name
	}
}

func registerPattern(validate *validator.Validate, trans ut.Translator, tag string, re *regexp.Regexp, msg string) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, msg, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}
