package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/vasapolrittideah/account-api/internal/apperror"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	locale := en.New()
	uni := ut.New(locale, locale)
	translator, _ = uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)
}

// decodeAndValidate parses the JSON body into dst and checks its validate
// tags, returning taxonomy errors for both failure modes.
func decodeAndValidate(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return apperror.Wrap(apperror.Validation, "invalid request body", err)
	}

	if err := validate.Struct(dst); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, fieldErr := range errs {
				messages = append(messages, fieldErr.Translate(translator))
			}
			return apperror.Wrap(apperror.Validation, strings.Join(messages, "; "), err)
		}
		return apperror.Wrap(apperror.Validation, "invalid request body", err)
	}

	return nil
}
