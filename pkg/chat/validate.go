package chat

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their json (or
// yaml) name and understands the "grouplist" tag for string fields holding
// a serialized GroupList.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// Only fails for a malformed tag, which would be a programming error.
	if err := v.RegisterValidation("grouplist", validateGroupList); err != nil {
		panic(err)
	}

	return v
}

func validateGroupList(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := ParseGroupList(fl.Field().String())
	return err == nil
}
