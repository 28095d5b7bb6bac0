package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/leads-server/internal/model"
)

var phonePattern = regexp.MustCompile(`^(?:\+?55)?(?:\s|-)?(?:\(?\d{2}\)?)(?:\s|-)?\d{4,5}(?:\s|-)?\d{4}$`)

// Base payload fields in the order they are validated.
const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldRole      = "role"
	FieldBirthDate = "birthDate"
	FieldMessage   = "message"
)

var baseFields = []string{FieldName, FieldEmail, FieldPhone, FieldRole, FieldBirthDate, FieldMessage}

// rules holds the validator tags applied to a non-empty field value.
var rules = map[string][]string{
	FieldEmail:     {"email"},
	FieldPhone:     {"br_phone"},
	FieldBirthDate: {"date_any", "not_future"},
}

var messages = map[string]string{
	"email":      "Informe um e-mail válido.",
	"br_phone":   "Informe um telefone brasileiro válido.",
	"date_any":   "Informe uma data de nascimento válida.",
	"not_future": "A data de nascimento não pode estar no futuro.",
}

// Mode selects between create and update validation.
type Mode int

const (
	// Full requires every base field.
	Full Mode = iota
	// Partial validates only the fields present in the payload.
	Partial
)

// Errors lists human-readable validation failures.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, " ")
}

// Validator checks lead payloads.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Validator with the lead rules registered.
func New() *Validator {
	v := &Validator{
		validate: validator.New(),
		now:      time.Now,
	}

	// Registration only fails on empty tags or nil functions.
	_ = v.validate.RegisterValidation("br_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("date_any", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseDate(fl.Field().String())
		return ok
	})
	_ = v.validate.RegisterValidation("not_future", func(fl validator.FieldLevel) bool {
		date, ok := model.ParseDate(fl.Field().String())
		return ok && !date.After(v.now())
	})

	return v
}

// Validate checks a decoded JSON payload and converts it into model.LeadInput.
// Tracking keys are read from a nested "tracking" object and from the top
// level, the latter taking precedence. On failure the returned error is Errors.
func (v *Validator) Validate(payload map[string]any, mode Mode) (model.LeadInput, error) {
	var (
		input model.LeadInput
		errs  Errors
	)

	for _, field := range baseFields {
		value, present := stringField(payload, field)
		if present {
			setField(&input, field, value)
		}
		if mode == Partial && !present {
			continue
		}

		if err := v.validate.Var(value, "required"); err != nil {
			errs = append(errs, fmt.Sprintf("Campo %s é obrigatório.", field))
			continue
		}

		for _, tag := range rules[field] {
			if err := v.validate.Var(value, tag); err != nil {
				errs = append(errs, messageFor(err, tag))
				break
			}
		}
	}

	input.Tracking = tracking(payload, mode)

	if len(errs) > 0 {
		return model.LeadInput{}, errs
	}

	return input, nil
}

func messageFor(err error, tag string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		tag = verrs[0].Tag()
	}
	if msg, ok := messages[tag]; ok {
		return msg
	}
	return fmt.Sprintf("Valor inválido (%s).", tag)
}

// tracking collects attribution keys. In Full mode every key is set.
func tracking(payload map[string]any, mode Mode) map[string]string {
	out := make(map[string]string, len(model.TrackingKeys))
	nested, _ := payload["tracking"].(map[string]any)

	for _, key := range model.TrackingKeys {
		if value, ok := stringField(nested, key); ok {
			out[key] = value
		}
		if value, ok := stringField(payload, key); ok {
			out[key] = value
		}
		if _, ok := out[key]; !ok && mode == Full {
			out[key] = ""
		}
	}

	return out
}

// stringField returns the trimmed text form of a scalar field. Null and
// missing fields are absent.
func stringField(payload map[string]any, key string) (string, bool) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case map[string]any, []any:
		return "", true
	default:
		return strings.TrimSpace(fmt.Sprint(v)), true
	}
}

func setField(input *model.LeadInput, field, value string) {
	switch field {
	case FieldName:
		input.Name = &value
	case FieldEmail:
		input.Email = &value
	case FieldPhone:
		input.Phone = &value
	case FieldRole:
		input.Role = &value
	case FieldBirthDate:
		input.BirthDate = &value
	case FieldMessage:
		input.Message = &value
	}
}
