package model

// Lifecycle 图鉴条目的生命周期状态
type Lifecycle int

const (
	// LifecycleActive 正常展示状态
	LifecycleActive Lifecycle = iota
	// LifecyclePendingDelete 已标记删除，处于宽限期内，可恢复
	LifecyclePendingDelete
	// LifecyclePurged 宽限期结束后被移除，只存在于持久化的删除清单中
	LifecyclePurged
)

// String 返回生命周期状态的可读名称
func (l Lifecycle) String() string {
	switch l {
	case LifecycleActive:
		return "ACTIVE"
	case LifecyclePendingDelete:
		return "PENDING_DELETE"
	case LifecyclePurged:
		return "PURGED"
	default:
		return "UNKNOWN"
	}
}

// Entry 集合中的一条图鉴记录及其状态
type Entry struct {
	Pokemon  *Pokemon  `json:"pokemon"`
	State    Lifecycle `json:"-"`
	Modified bool      `json:"-"`
	// LoadOrder 记录初始加载顺序，排序相等时保持该顺序
	LoadOrder int `json:"-"`
}

// IsPendingDelete 是否处于删除宽限期
func (e *Entry) IsPendingDelete() bool {
	return e.State == LifecyclePendingDelete
}
