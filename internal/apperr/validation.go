package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	translator ut.Translator
	setupOnce  sync.Once
)

// SetupValidation hooks english messages and json field names into gin's
// validator. Safe to call more than once.
func SetupValidation() {
	setupOnce.Do(func() {
		_en := en.New()
		uni := ut.New(_en, _en)
		translator, _ = uni.GetTranslator("en")

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = en_translations.RegisterDefaultTranslations(v, translator)

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// Validation turns a bind error into a 400 carrying per-field messages.
func Validation(err error) *Error {
	out := BadRequest("invalid input").SetDebug(err)

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		out.fields = make(map[string]string, len(vErrs))
		for _, fe := range vErrs {
			if translator != nil {
				out.fields[fe.Field()] = fe.Translate(translator)
			} else {
				out.fields[fe.Field()] = fe.Error()
			}
		}
		return out
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		out.msgToUser = "malformed json body"
	case errors.Is(err, io.EOF):
		out.msgToUser = "empty body"
	case errors.As(err, &typeErr):
		out.fields = map[string]string{typeErr.Field: "has the wrong type"}
	}
	return out
}

// Invalid is a validation failure found by hand rather than by the binder.
func Invalid(field, msg string) *Error {
	out := BadRequest("invalid input")
	out.fields = map[string]string{field: msg}
	return out
}
