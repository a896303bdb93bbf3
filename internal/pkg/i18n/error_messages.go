// File: internal/pkg/i18n/error_messages.go
package i18n

import (
	"pokedex-self/internal/pkg/xerrors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrorMessages 错误消息的多语言映射
var ErrorMessages = map[xerrors.ErrorCode]map[language.Tag]string{
	// 1xxxxx: 通用错误码
	xerrors.CodeSuccess:           {language.Chinese: "操作成功", language.English: "Operation successful"},
	xerrors.CodeInternalError:     {language.Chinese: "内部服务错误", language.English: "Internal server error"},
	xerrors.CodeInvalidParams:     {language.Chinese: "参数错误", language.English: "Invalid parameters"},
	xerrors.CodeInvalidRequest:    {language.Chinese: "请求格式错误", language.English: "Invalid request format"},
	xerrors.CodeResourceNotFound:  {language.Chinese: "资源不存在", language.English: "Resource not found"},
	xerrors.CodeDuplicateResource: {language.Chinese: "资源已存在", language.English: "Resource already exists"},
	xerrors.CodeRateLimitExceeded: {language.Chinese: "请求频率限制", language.English: "Rate limit exceeded"},

	// 2xxxxx: 认证相关错误码
	xerrors.CodeAuthenticationFailed: {language.Chinese: "认证失败", language.English: "Authentication failed"},
	xerrors.CodeInvalidToken:         {language.Chinese: "无效令牌", language.English: "Invalid token"},
	xerrors.CodeTokenExpired:         {language.Chinese: "令牌过期", language.English: "Token expired"},
	xerrors.CodeInvalidCredentials:   {language.Chinese: "凭据无效", language.English: "Invalid credentials"},
	xerrors.CodeSessionExpired:       {language.Chinese: "会话过期", language.English: "Session expired"},

	// 4xxxxx: 用户管理错误码
	xerrors.CodeUserNotFound:      {language.Chinese: "用户不存在", language.English: "User not found"},
	xerrors.CodeUserAlreadyExists: {language.Chinese: "用户已存在", language.English: "User already exists"},
	xerrors.CodeEmailExists:       {language.Chinese: "邮箱已注册", language.English: "Email already registered"},
	xerrors.CodeInvalidUserStatus: {language.Chinese: "用户状态无效", language.English: "Invalid user status"},

	// 6xxxxx: 业务逻辑错误码
	xerrors.CodeBusinessLogicError:  {language.Chinese: "业务逻辑错误", language.English: "Business logic error"},
	xerrors.CodeDataIntegrityError:  {language.Chinese: "数据完整性错误", language.English: "Data integrity error"},
	xerrors.CodeOperationNotAllowed: {language.Chinese: "操作不被允许", language.English: "Operation not allowed"},

	// 7xxxxx: 外部服务错误码
	xerrors.CodeExternalServiceError: {language.Chinese: "外部服务错误", language.English: "External service error"},
	xerrors.CodeCatalogError:         {language.Chinese: "图鉴数据源错误", language.English: "Catalog source error"},
	xerrors.CodeStorageError:         {language.Chinese: "键值存储错误", language.English: "Key-value store error"},
	xerrors.CodeMessageQueueError:    {language.Chinese: "消息队列错误", language.English: "Message queue error"},
	xerrors.CodeIdentityAPIError:     {language.Chinese: "远端身份服务错误", language.English: "Remote identity API error"},

	// 8xxxxx: 图鉴业务错误码
	// 宝可梦相关 (80xxxx)
	xerrors.CodePokemonNotFound:      {language.Chinese: "宝可梦不存在", language.English: "Pokemon not found"},
	xerrors.CodePokemonPendingDelete: {language.Chinese: "宝可梦处于删除倒计时中", language.English: "Pokemon is pending deletion"},
	xerrors.CodeEngineNotReady:       {language.Chinese: "列表引擎尚未完成引导", language.English: "List engine not bootstrapped"},
	xerrors.CodeBootstrapFailed:      {language.Chinese: "图鉴数据引导失败", language.English: "Catalog bootstrap failed"},

	// 视图参数相关 (81xxxx)
	xerrors.CodeInvalidSortKey:   {language.Chinese: "排序字段无效", language.English: "Invalid sort key"},
	xerrors.CodeInvalidSortOrder: {language.Chinese: "排序方向无效", language.English: "Invalid sort order"},
	xerrors.CodeInvalidPageSize:  {language.Chinese: "每页数量无效", language.English: "Invalid page size"},
	xerrors.CodeInvalidPage:      {language.Chinese: "页码无效", language.English: "Invalid page number"},

	// 调度相关 (82xxxx)
	xerrors.CodeTimerConflict: {language.Chinese: "同一实体存在多个删除定时器", language.English: "Duplicate delete timer for entity"},
}

// GetErrorMessage 获取错误码对应语言的消息
func GetErrorMessage(code xerrors.ErrorCode, lang language.Tag) string {
	if messages, ok := ErrorMessages[code]; ok {
		if msg, ok := messages[lang]; ok {
			return msg
		}
		// 如果指定语言没有翻译，返回中文（默认）
		if msg, ok := messages[language.Chinese]; ok {
			return msg
		}
	}
	// 如果完全没有定义，返回通用错误消息
	if lang == language.English {
		return "Unknown error"
	}
	return "未知错误"
}

// init 初始化消息目录
func init() {
	// 为每个错误码注册翻译
	for code, messages := range ErrorMessages {
		codeInt := code.ToInt()
		for lang, msg := range messages {
			message.SetString(lang, string(rune(codeInt)), msg)
		}
	}
}
