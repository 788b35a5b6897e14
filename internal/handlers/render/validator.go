package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("image", validateImagePayload)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// validateImagePayload accepts a base64 encoded picture, optionally wrapped
// in a data URL ('data:image/...;base64,....')
func validateImagePayload(fl validator.FieldLevel) bool {
	payload := fl.Field().String()

	if rest, ok := strings.CutPrefix(payload, "data:image/"); ok {
		_, payload, ok = strings.Cut(rest, ";base64,")
		if !ok {
			return false
		}
	}

	if payload == "" {
		return false
	}

	for i := 0; i < len(payload); i++ {
		c := payload[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+' || c == '/' || c == '=':
		default:
			return false
		}
	}

	return true
}
