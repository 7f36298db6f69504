package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// RegisterValidators 注册业务自定义校验标签
//   - weekday: MONDAY … SUNDAY
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return model.Weekday(fl.Field().String()).Valid()
	})
}
