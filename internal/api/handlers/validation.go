package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

var registerOnce sync.Once

// RegisterValidators adds the domain enum tags to gin's validator
func RegisterValidators() {
	middleware.InitValidator()

	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("movement_type", func(fl validator.FieldLevel) bool {
			return domain.MovementType(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("bill_status", func(fl validator.FieldLevel) bool {
			return domain.BillStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			return domain.PaymentMethod(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
			return domain.PaymentStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("adjust_mode", func(fl validator.FieldLevel) bool {
			return domain.AdjustMode(fl.Field().String()).IsValid()
		})
	})
}
