package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// BusinessValidator 业务规则验证器
type BusinessValidator struct {
	validator *validator.Validate
}

// NewBusinessValidator 创建新的业务验证器
func NewBusinessValidator() *BusinessValidator {
	v := validator.New()
	registerBusinessValidations(v)

	return &BusinessValidator{
		validator: v,
	}
}

// registerBusinessValidations 注册图鉴业务的自定义验证规则
func registerBusinessValidations(v *validator.Validate) {
	v.RegisterValidation("pokemon_name", validatePokemonName)
	v.RegisterValidation("sort_key", validateSortKey)
	v.RegisterValidation("sort_order", validateSortOrder)
	v.RegisterValidation("page_size", validatePageSize)
	v.RegisterValidation("type_name", validateTypeName)
	v.RegisterValidation("safe_search", validateSafeSearch)
	v.RegisterValidation("positive_number", validatePositiveNumber)
	v.RegisterValidation("stat_value", validateStatValue)
}

// Validate 验证结构体
func (bv *BusinessValidator) Validate(i interface{}) error {
	return bv.validator.Struct(i)
}

// validatePokemonName 验证宝可梦名称格式
func validatePokemonName(fl validator.FieldLevel) bool {
	name := fl.Field().String()

	// 名称规则：
	// 1. 长度 1-64 字符
	// 2. 小写字母、数字、连字符（与目录数据源的命名一致）
	// 3. 必须以字母开头
	if len(name) < 1 || len(name) > 64 {
		return false
	}

	matched, _ := regexp.MatchString(`^[a-z][a-z0-9-]*$`, name)
	return matched
}

// validateSortKey 验证排序字段
func validateSortKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" {
		return true // 空值使用默认排序
	}

	switch key {
	case "id", "name", "height", "weight":
		return true
	}
	return false
}

// validateSortOrder 验证排序方向
func validateSortOrder(fl validator.FieldLevel) bool {
	order := fl.Field().String()
	if order == "" {
		return true // 空值使用默认方向
	}

	return order == "asc" || order == "desc"
}

// validatePageSize 验证每页数量
func validatePageSize(fl validator.FieldLevel) bool {
	size := fl.Field().Int()
	if size == 0 {
		return true // 空值使用默认每页数量
	}

	switch size {
	case 10, 20, 30, 50:
		return true
	}
	return false
}

// validateTypeName 验证属性（type）名称
func validateTypeName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return true // 空值表示不过滤
	}

	// 属性名称规则：仅小写字母，长度 2-16
	matched, _ := regexp.MatchString(`^[a-z]{2,16}$`, name)
	return matched
}

// validateSafeSearch 验证搜索关键字
func validateSafeSearch(fl validator.FieldLevel) bool {
	term := fl.Field().String()

	// 搜索关键字规则：
	// 1. 长度不超过 64 字符
	// 2. 不能包含脚本标签和危险内容
	if utf8.RuneCountInString(term) > 64 {
		return false
	}

	dangerousPatterns := []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "<iframe", "</iframe>",
	}

	lowerTerm := strings.ToLower(term)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerTerm, pattern) {
			return false
		}
	}

	return true
}

// validatePositiveNumber 验证正数
func validatePositiveNumber(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int() > 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fl.Field().Uint() > 0
	case reflect.Float32, reflect.Float64:
		return fl.Field().Float() > 0
	}
	return false
}

// validateStatValue 验证种族值
func validateStatValue(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	// 种族值范围：0-255
	return value >= 0 && value <= 255
}

// GetValidationErrorMessage 获取验证错误的友好消息
func GetValidationErrorMessage(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			field := fieldError.Field()
			tag := fieldError.Tag()

			switch tag {
			case "required":
				return fmt.Sprintf("字段 %s 是必填项", field)
			case "pokemon_name":
				return fmt.Sprintf("宝可梦名称格式不正确：必须是1-64位小写字母、数字或连字符，以字母开头")
			case "sort_key":
				return fmt.Sprintf("排序字段不正确：必须是 id、name、height 或 weight")
			case "sort_order":
				return fmt.Sprintf("排序方向不正确：必须是 asc 或 desc")
			case "page_size":
				return fmt.Sprintf("每页数量不正确：必须是 10、20、30 或 50")
			case "type_name":
				return fmt.Sprintf("属性名称格式不正确：必须是2-16位小写字母")
			case "safe_search":
				return fmt.Sprintf("搜索关键字不安全：长度不超过64字符，不能包含脚本标签")
			case "positive_number":
				return fmt.Sprintf("字段 %s 必须是正数", field)
			case "stat_value":
				return fmt.Sprintf("种族值必须在0-255之间")
			case "min":
				return fmt.Sprintf("字段 %s 的值太小", field)
			case "max":
				return fmt.Sprintf("字段 %s 的值太大", field)
			case "email":
				return fmt.Sprintf("邮箱格式不正确")
			case "uuid":
				return fmt.Sprintf("UUID格式不正确")
			default:
				return fmt.Sprintf("字段 %s 验证失败：%s", field, tag)
			}
		}
	}

	return "验证失败：" + err.Error()
}
