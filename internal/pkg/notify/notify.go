package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

var (
	ncMu sync.RWMutex
	nc   *nats.Conn
)

// SetNatsConn 设置全局 NATS 连接（由 main 提供）
func SetNatsConn(conn *nats.Conn) {
	ncMu.Lock()
	defer ncMu.Unlock()
	nc = conn
}

// IdentityEvent 身份变化事件负载
type IdentityEvent struct {
	UserID   string `json:"user_id"`
	Identity string `json:"identity"`
	Reason   string `json:"reason,omitempty"`
}

// PublishAuthEvent 发布认证相关事件
func PublishAuthEvent(ctx context.Context, subject string, payload interface{}) error {
	ncMu.RLock()
	conn := nc
	ncMu.RUnlock()
	if conn == nil {
		return nil // 没有连接时静默降级
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal auth event failed: %w", err)
	}
	return conn.Publish(subject, data)
}

// Subscribe 订阅指定主题，返回取消订阅句柄
func Subscribe(subject string, handler func(data []byte)) (*nats.Subscription, error) {
	ncMu.RLock()
	conn := nc
	ncMu.RUnlock()
	if conn == nil {
		return nil, nil // 没有连接时静默降级
	}
	return conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Default subjects
const (
	SubjectIdentityChanged   = "auth.identity.changed"
	SubjectIdentityLoggedOut = "auth.identity.logged_out"
)
