package api

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// passwordSpecialChars 密码必须包含的特殊字符集合
const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// RegisterValidators 在 gin 的 binding 校验器上注册自定义规则。
// 需要在路由装配前调用一次。
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordMeetsPolicy(fl.Field().String())
	})
}

// passwordMeetsPolicy 校验密码策略：8-16 个字符，至少一个大写字母和一个特殊字符
func passwordMeetsPolicy(password string) bool {
	length := len([]rune(password))
	if length < 8 || length > 16 {
		return false
	}
	var hasUpper, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case strings.ContainsRune(passwordSpecialChars, ch):
			hasSpecial = true
		}
	}
	return hasUpper && hasSpecial
}
