// Package service 实现登录、注册与会话管理
// 认证优先走远端身份服务，远端不可用时回退到本地用户存储
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authclient "pokedex-self/internal/modules/auth/client"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/notify"
	"pokedex-self/internal/pkg/sessioncache"
	"pokedex-self/internal/pkg/xerrors"
)

const (
	// localUsersKey 本地用户清单在 KV 存储中的键
	localUsersKey = "users"

	// serviceName 指标与会话缓存使用的服务标签
	serviceName = "dashboard"

	// avatarURLTemplate 注册时生成默认头像的地址模板
	avatarURLTemplate = "https://i.pravatar.cc/150?u=%s"
)

// LocalUser 本地回退存储中的用户记录
type LocalUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	PasswordHash string `json:"password_hash"`
}

// UserProfile 对外暴露的用户资料
type UserProfile struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	// Source 资料来源: remote 或 local
	Source string `json:"source"`
}

// LoginResult 登录成功后的会话与用户资料
type LoginResult struct {
	SessionToken string      `json:"session_token"`
	User         UserProfile `json:"user"`
}

// AuthService 认证服务
type AuthService struct {
	identity authclient.IdentityClient
	store    kvstore.Store
	sessions *sessioncache.Cache
	logger   log.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(identity authclient.IdentityClient, store kvstore.Store, sessions *sessioncache.Cache, logger log.Logger) *AuthService {
	return &AuthService{
		identity: identity,
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// Login 登录: 远端身份服务优先，远端不可达时回退本地用户
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	start := time.Now()

	// 1. 远端身份服务认证
	profile, remoteErr := s.remoteLogin(ctx, email, password)
	if remoteErr != nil {
		// 2. 远端凭证错误直接拒绝，服务不可达才回退本地
		var appErr *xerrors.AppError
		if errors.As(remoteErr, &appErr) && appErr.Code == xerrors.CodeInvalidCredentials {
			metrics.DefaultLoginMetrics.ObserveDuration(serviceName, "failure", time.Since(start))
			return nil, remoteErr
		}

		log.WarnContext(ctx, "远端身份服务不可用，回退本地认证",
			log.String("email", email),
			log.Any("error", remoteErr))

		localProfile, localErr := s.localLogin(ctx, email, password)
		if localErr != nil {
			metrics.DefaultLoginMetrics.ObserveDuration(serviceName, "failure", time.Since(start))
			return nil, localErr
		}
		profile = localProfile
	}

	// 3. 建立会话
	result := s.establishSession(ctx, profile)

	// 4. 广播身份变更，触发旧身份引擎销毁
	_ = notify.PublishAuthEvent(ctx, notify.SubjectIdentityChanged, notify.IdentityEvent{
		UserID:   profile.ID,
		Identity: profile.Email,
		Reason:   "login",
	})

	metrics.DefaultLoginMetrics.ObserveDuration(serviceName, "success", time.Since(start))
	log.InfoContext(ctx, "用户登录成功",
		log.String("user_id", profile.ID),
		log.String("source", profile.Source))
	return result, nil
}

// Register 注册: 远端身份服务优先，远端不可达时写入本地用户存储
// 注册成功后直接登录
func (s *AuthService) Register(ctx context.Context, email, password string) (*LoginResult, error) {
	name := emailLocalPart(email)
	avatar := fmt.Sprintf(avatarURLTemplate, email)

	_, remoteErr := s.identity.CreateUser(ctx, email, password, name, avatar)
	if remoteErr == nil {
		return s.Login(ctx, email, password)
	}

	// 远端已存在同邮箱用户时不回退，避免影子账号
	var appErr *xerrors.AppError
	if errors.As(remoteErr, &appErr) && appErr.Code == xerrors.CodeEmailExists {
		return nil, remoteErr
	}

	log.WarnContext(ctx, "远端身份服务不可用，回退本地注册",
		log.String("email", email),
		log.Any("error", remoteErr))

	if err := s.localRegister(ctx, email, password, name, avatar); err != nil {
		return nil, err
	}
	return s.Login(ctx, email, password)
}

// Logout 注销会话并广播登出事件
func (s *AuthService) Logout(ctx context.Context, token string) {
	session, ok := s.sessions.Get(ctx, serviceName, token)
	s.sessions.Delete(ctx, serviceName, token, "logout")

	if ok {
		_ = notify.PublishAuthEvent(ctx, notify.SubjectIdentityLoggedOut, notify.IdentityEvent{
			UserID:   session.UserID,
			Identity: session.Identity,
			Reason:   "logout",
		})
		log.InfoContext(ctx, "用户已登出", log.String("user_id", session.UserID))
	}
}

// Profile 从会话还原用户资料
func (s *AuthService) Profile(ctx context.Context, token string) (*UserProfile, error) {
	session, ok := s.sessions.Get(ctx, serviceName, token)
	if !ok {
		return nil, xerrors.NewSessionExpiredError()
	}
	return &UserProfile{
		ID:    session.UserID,
		Email: session.Email,
		Name:  session.Username,
	}, nil
}

// ==================== 远端认证 ====================

func (s *AuthService) remoteLogin(ctx context.Context, email, password string) (*UserProfile, error) {
	tokens, err := s.identity.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.identity.Profile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	return &UserProfile{
		ID:     fmt.Sprintf("%d", user.ID),
		Email:  user.Email,
		Name:   user.Name,
		Avatar: user.Avatar,
		Source: "remote",
	}, nil
}

// ==================== 本地回退 ====================

func (s *AuthService) localLogin(ctx context.Context, email, password string) (*UserProfile, error) {
	users, err := s.loadLocalUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		return &UserProfile{
			ID:     u.ID,
			Email:  u.Email,
			Name:   u.Name,
			Avatar: u.Avatar,
			Source: "local",
		}, nil
	}
	return nil, xerrors.FromCode(xerrors.CodeInvalidCredentials)
}

func (s *AuthService) localRegister(ctx context.Context, email, password, name, avatar string) error {
	users, err := s.loadLocalUsers(ctx)
	if err != nil {
		return err
	}

	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return xerrors.NewUserExistsError(email)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeInternalError, "密码加密失败", err)
	}

	users = append(users, LocalUser{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Avatar:       avatar,
		PasswordHash: string(hash),
	})

	data, err := json.Marshal(users)
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeInternalError, "序列化用户清单失败", err)
	}
	if err := s.store.Set(ctx, localUsersKey, string(data)); err != nil {
		return err
	}

	log.InfoContext(ctx, "本地用户注册成功", log.String("email", email))
	return nil
}

func (s *AuthService) loadLocalUsers(ctx context.Context) ([]LocalUser, error) {
	raw, ok, err := s.store.Get(ctx, localUsersKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var users []LocalUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		// 损坏的用户清单按空清单处理，注册会重建它
		log.WarnContext(ctx, "本地用户清单数据损坏，已忽略", log.Any("error", err))
		return nil, nil
	}
	return users, nil
}

// ==================== 会话 ====================

func (s *AuthService) establishSession(ctx context.Context, profile *UserProfile) *LoginResult {
	token := uuid.NewString()
	s.sessions.Set(ctx, serviceName, sessioncache.Session{
		SessionToken: token,
		UserID:       profile.ID,
		Username:     profile.Name,
		Email:        profile.Email,
		Identity:     profile.Email,
	})
	return &LoginResult{
		SessionToken: token,
		User:         *profile,
	}
}

// emailLocalPart 取邮箱 @ 前的部分作为默认用户名
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
