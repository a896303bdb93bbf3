// File: internal/pkg/xerrors/codes.go
package xerrors

import "fmt"

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// IsValid 检查错误码是否在预定义列表中
func (c ErrorCode) IsValid() bool {
	_, exists := codeMessages[c]
	return exists
}

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "未知错误"
}

// ToInt 转换为 int（用于 JSON 序列化等场景）
func (c ErrorCode) ToInt() int {
	return int(c)
}

// -----------------------------------------------------------------------------
// 业务错误码统一定义
// 按模块或领域对错误码进行分段，便于管理。
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeInvalidRequest    ErrorCode = 100003 // 请求格式错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeDuplicateResource ErrorCode = 100409 // 资源已存在
	CodeRateLimitExceeded ErrorCode = 100429 // 请求频率限制

	// 2xxxxx: 认证相关错误码
	CodeAuthenticationFailed ErrorCode = 200001 // 认证失败
	CodeInvalidToken         ErrorCode = 200002 // 无效令牌
	CodeTokenExpired         ErrorCode = 200003 // 令牌过期
	CodeInvalidCredentials   ErrorCode = 200004 // 凭据无效
	CodeSessionExpired       ErrorCode = 200005 // 会话过期

	// 4xxxxx: 用户管理错误码
	CodeUserNotFound      ErrorCode = 400001 // 用户不存在
	CodeUserAlreadyExists ErrorCode = 400002 // 用户已存在
	CodeEmailExists       ErrorCode = 400003 // 邮箱已注册
	CodeInvalidUserStatus ErrorCode = 400004 // 用户状态无效

	// 6xxxxx: 业务逻辑错误码
	CodeBusinessLogicError  ErrorCode = 600001 // 业务逻辑错误
	CodeDataIntegrityError  ErrorCode = 600002 // 数据完整性错误
	CodeOperationNotAllowed ErrorCode = 600003 // 操作不被允许

	// 7xxxxx: 外部服务错误码
	CodeExternalServiceError ErrorCode = 700001 // 外部服务错误
	CodeCatalogError         ErrorCode = 700002 // 图鉴数据源错误
	CodeStorageError         ErrorCode = 700003 // 键值存储错误
	CodeMessageQueueError    ErrorCode = 700004 // 消息队列错误
	CodeIdentityAPIError     ErrorCode = 700005 // 远端身份服务错误

	// 8xxxxx: 图鉴业务错误码
	// 宝可梦相关 (80xxxx)
	CodePokemonNotFound      ErrorCode = 800001 // 宝可梦不存在
	CodePokemonPendingDelete ErrorCode = 800002 // 宝可梦处于删除倒计时中
	CodeEngineNotReady       ErrorCode = 800003 // 列表引擎尚未完成引导
	CodeBootstrapFailed      ErrorCode = 800004 // 图鉴数据引导失败

	// 视图参数相关 (81xxxx)
	CodeInvalidSortKey   ErrorCode = 810001 // 排序字段无效
	CodeInvalidSortOrder ErrorCode = 810002 // 排序方向无效
	CodeInvalidPageSize  ErrorCode = 810003 // 每页数量无效
	CodeInvalidPage      ErrorCode = 810004 // 页码无效

	// 调度相关 (82xxxx)
	CodeTimerConflict ErrorCode = 820001 // 同一实体存在多个删除定时器
)

// -----------------------------------------------------------------------------
// HTTP 状态码常量定义
// -----------------------------------------------------------------------------
const (
	HTTPStatusOK        = 200 // 请求成功
	HTTPStatusCreated   = 201 // 资源已创建
	HTTPStatusNoContent = 204 // 请求成功但无内容返回

	HTTPStatusBadRequest          = 400 // 错误请求
	HTTPStatusUnauthorized        = 401 // 未经授权
	HTTPStatusForbidden           = 403 // 禁止访问
	HTTPStatusNotFound            = 404 // 资源未找到
	HTTPStatusConflict            = 409 // 资源冲突
	HTTPStatusUnprocessableEntity = 422 // 无法处理的实体
	HTTPStatusTooManyRequests     = 429 // 请求过多

	HTTPStatusInternalServerError = 500 // 内部服务器错误
	HTTPStatusServiceUnavailable  = 503 // 服务不可用
)

// -----------------------------------------------------------------------------
// 错误消息映射
// -----------------------------------------------------------------------------
var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "操作成功",
	CodeInternalError:     "内部服务错误",
	CodeInvalidParams:     "参数错误",
	CodeInvalidRequest:    "请求格式错误",
	CodeResourceNotFound:  "资源不存在",
	CodeDuplicateResource: "资源已存在",
	CodeRateLimitExceeded: "请求频率限制",

	CodeAuthenticationFailed: "认证失败",
	CodeInvalidToken:         "无效令牌",
	CodeTokenExpired:         "令牌过期",
	CodeInvalidCredentials:   "凭据无效",
	CodeSessionExpired:       "会话过期",

	CodeUserNotFound:      "用户不存在",
	CodeUserAlreadyExists: "用户已存在",
	CodeEmailExists:       "邮箱已注册",
	CodeInvalidUserStatus: "用户状态无效",

	CodeBusinessLogicError:  "业务逻辑错误",
	CodeDataIntegrityError:  "数据完整性错误",
	CodeOperationNotAllowed: "操作不被允许",

	CodeExternalServiceError: "外部服务错误",
	CodeCatalogError:         "图鉴数据源错误",
	CodeStorageError:         "键值存储错误",
	CodeMessageQueueError:    "消息队列错误",
	CodeIdentityAPIError:     "远端身份服务错误",

	// 图鉴业务错误消息
	CodePokemonNotFound:      "宝可梦不存在",
	CodePokemonPendingDelete: "宝可梦处于删除倒计时中",
	CodeEngineNotReady:       "列表引擎尚未完成引导",
	CodeBootstrapFailed:      "图鉴数据引导失败",
	CodeInvalidSortKey:       "排序字段无效",
	CodeInvalidSortOrder:     "排序方向无效",
	CodeInvalidPageSize:      "每页数量无效",
	CodeInvalidPage:          "页码无效",
	CodeTimerConflict:        "同一实体存在多个删除定时器",
}

// GetHTTPStatus 根据业务错误码获取HTTP状态码
func GetHTTPStatus(code ErrorCode) int {
	switch {
	case code == CodeSuccess:
		return HTTPStatusOK
	case code >= 200000 && code < 300000:
		return HTTPStatusUnauthorized
	case code >= 400000 && code < 500000:
		if code == CodeUserNotFound {
			return HTTPStatusNotFound
		}
		if code == CodeUserAlreadyExists || code == CodeEmailExists {
			return HTTPStatusConflict
		}
		return HTTPStatusBadRequest
	case code == CodeResourceNotFound:
		return HTTPStatusNotFound
	case code == CodeDuplicateResource:
		return HTTPStatusConflict
	case code == CodeInvalidParams || code == CodeInvalidRequest:
		return HTTPStatusBadRequest
	case code == CodeRateLimitExceeded:
		return HTTPStatusTooManyRequests
	case code >= 600000 && code < 700000:
		return HTTPStatusBadRequest
	case code >= 700000 && code < 800000:
		return HTTPStatusServiceUnavailable
	case code == CodePokemonNotFound:
		return HTTPStatusNotFound
	case code == CodePokemonPendingDelete:
		return HTTPStatusConflict
	case code >= 810000 && code < 820000:
		return HTTPStatusBadRequest
	default:
		return HTTPStatusInternalServerError
	}
}

// 辅助函数
// getCategoryByCode 根据错误码获取分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 200000 && code < 300000:
		return "authentication"
	case code >= 400000 && code < 500000:
		return "user"
	case code >= 600000 && code < 700000:
		return "business"
	case code >= 700000 && code < 800000:
		return "external"
	case code >= 800000 && code < 900000:
		return "pokedex"
	default:
		return "unknown"
	}
}

// getLevelByCode 根据错误码获取级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch {
	case code == CodeSuccess:
		return LevelInfo
	case code >= 100001 && code <= 100003: // 参数错误等
		return LevelWarn
	case code == CodeStorageError: // 存储失败本地降级，不算严重
		return LevelWarn
	case code >= 700001: // 外部服务错误
		return LevelCritical
	default:
		return LevelError
	}
}

// isRetryableByCode 根据错误码判断是否可重试
func isRetryableByCode(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		CodeInternalError:        true,
		CodeExternalServiceError: true,
		CodeCatalogError:         true,
		CodeStorageError:         true,
		CodeMessageQueueError:    true,
		CodeIdentityAPIError:     true,
		CodeRateLimitExceeded:    true,
	}
	return retryableCodes[code]
}
