package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
)

const clockTag = "clock"

// Validator wraps go-playground/validator with English messages keyed by JSON
// field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a validator with the default English translations and the
// custom tags used by timetable payloads.
func New() *Validator {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		_, err := timetable.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterTranslation(clockTag, translator,
		func(t ut.Translator) error {
			return t.Add(clockTag, "{0} must be a time in HH:MM format", false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(clockTag, fe.Field())
			return msg
		},
	)

	return &Validator{validate: validate, translator: translator}
}

// Struct validates s and returns an ErrValidation carrying readable messages.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	messages := v.Messages(err)
	if len(messages) == 0 {
		return appErrors.WrapAs(err, appErrors.ErrValidation, "")
	}
	return appErrors.WrapAs(err, appErrors.ErrValidation, strings.Join(messages, "; "))
}

// Messages translates validation failures in field order.
func (v *Validator) Messages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Translate(v.translator))
	}
	return messages
}
