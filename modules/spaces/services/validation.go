package services

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var descriptorValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// checkRequired validates the struct tags of d and renders the first failure
// with the field's wire name.
func checkRequired(d any) string {
	err := descriptorValidator().Struct(d)
	if err == nil {
		return ""
	}
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" is "+fe.Tag())
		}
		return strings.Join(fields, ", ")
	}
	return err.Error()
}
