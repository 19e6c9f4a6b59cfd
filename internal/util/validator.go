package util

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"exusiai.dev/stageflow/internal/model"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("caseinsensitiveoneof", caseInsensitiveOneOf)
	validate.RegisterValidation("rankscope", rankScope)

	return validate
}

// Violations flattens validator errors into field -> failed tag pairs. Errors
// that are not validation errors are reported under the "_" key.
func Violations(err error) map[string]string {
	res := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res["_"] = err.Error()
		return res
	}
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		res[fe.Namespace()] = tag
	}
	return res
}

func caseInsensitiveOneOf(fl validator.FieldLevel) bool {
	val := strings.ToLower(fl.Field().String())
	candidates := strings.Split(strings.ToLower(fl.Param()), " ")
	for _, v := range candidates {
		if val == v {
			return true
		}
	}
	return false
}

func rankScope(fl validator.FieldLevel) bool {
	val := model.RankScope(fl.Field().String())
	return val == model.RankScopeOverall || val == model.RankScopeWithin
}
