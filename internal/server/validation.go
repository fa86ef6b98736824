package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"taskgrid/internal/models"
)

var validatorsOnce sync.Once

// registerValidators adds the domain checks to gin's validator so request
// structs can use them as binding tags.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("caldate", func(fl validator.FieldLevel) bool {
			_, err := models.NormalizeDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("memberrole", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).IsValid()
		})
	})
}

// bindingMessage turns a bind error into a message fit for the client.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "caldate":
		return field + " must be a date (YYYY-MM-DD)"
	case "taskstatus":
		return fmt.Sprintf("%s must be one of %q, %q, %q", field, models.StatusToDo, models.StatusInProgress, models.StatusDone)
	case "memberrole":
		return fmt.Sprintf("%s must be %q or %q", field, models.RoleAdmin, models.RoleTeamMember)
	default:
		return field + " is invalid"
	}
}
