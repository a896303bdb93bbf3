package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authclient "pokedex-self/internal/modules/auth/client"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/sessioncache"
	"pokedex-self/internal/pkg/xerrors"
)

// fakeIdentityClient 测试用的远端身份服务
type fakeIdentityClient struct {
	users       map[string]string // email -> password
	unavailable bool
}

func newFakeIdentityClient() *fakeIdentityClient {
	return &fakeIdentityClient{users: make(map[string]string)}
}

func (f *fakeIdentityClient) Login(ctx context.Context, email, password string) (*authclient.TokenPair, error) {
	if f.unavailable {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, "身份服务不可达")
	}
	if pw, ok := f.users[email]; ok && pw == password {
		return &authclient.TokenPair{AccessToken: "token-" + email}, nil
	}
	return nil, xerrors.FromCode(xerrors.CodeInvalidCredentials)
}

func (f *fakeIdentityClient) Profile(ctx context.Context, accessToken string) (*authclient.RemoteUser, error) {
	if f.unavailable {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, "身份服务不可达")
	}
	email := accessToken[len("token-"):]
	return &authclient.RemoteUser{ID: 7, Email: email, Name: "remote-user"}, nil
}

func (f *fakeIdentityClient) CreateUser(ctx context.Context, email, password, name, avatar string) (*authclient.RemoteUser, error) {
	if f.unavailable {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, "身份服务不可达")
	}
	if _, ok := f.users[email]; ok {
		return nil, xerrors.NewUserExistsError(email)
	}
	f.users[email] = password
	return &authclient.RemoteUser{ID: len(f.users), Email: email, Name: name, Avatar: avatar}, nil
}

func newTestAuthService(t *testing.T, identity authclient.IdentityClient) (*AuthService, *kvstore.MemoryStore) {
	t.Helper()

	store := kvstore.NewMemoryStore()
	sessions := sessioncache.New(time.Minute, metrics.DefaultLoginMetrics, log.GetLogger())
	return NewAuthService(identity, store, sessions, log.GetLogger()), store
}

// TestAuthService_RemoteLogin 测试远端优先登录
func TestAuthService_RemoteLogin(t *testing.T) {
	ctx := context.Background()
	identity := newFakeIdentityClient()
	identity.users["ash@pallet.town"] = "pikachu"

	svc, _ := newTestAuthService(t, identity)

	result, err := svc.Login(ctx, "ash@pallet.town", "pikachu")
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, "ash@pallet.town", result.User.Email)
	assert.Equal(t, "remote", result.User.Source)

	// 会话建立后可还原资料
	profile, err := svc.Profile(ctx, result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "ash@pallet.town", profile.Email)
}

// TestAuthService_RemoteInvalidCredentials 测试远端凭证错误不回退本地
func TestAuthService_RemoteInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	identity := newFakeIdentityClient()
	identity.users["ash@pallet.town"] = "pikachu"

	svc, _ := newTestAuthService(t, identity)

	_, err := svc.Login(ctx, "ash@pallet.town", "wrong")
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodeInvalidCredentials, appErr.Code)
}

// TestAuthService_LocalFallbackLogin 测试远端不可达时回退本地用户
func TestAuthService_LocalFallbackLogin(t *testing.T) {
	ctx := context.Background()
	identity := newFakeIdentityClient()
	identity.unavailable = true

	svc, store := newTestAuthService(t, identity)

	// 预置本地用户
	hash, err := bcrypt.GenerateFromPassword([]byte("pikachu"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, localUsersKey,
		`[{"id":"u1","email":"ash@pallet.town","name":"ash","password_hash":"`+string(hash)+`"}]`))

	result, err := svc.Login(ctx, "ash@pallet.town", "pikachu")
	require.NoError(t, err)
	assert.Equal(t, "local", result.User.Source)
	assert.Equal(t, "u1", result.User.ID)

	// 本地密码错误
	_, err = svc.Login(ctx, "ash@pallet.town", "wrong")
	require.Error(t, err)
}

// TestAuthService_RemoteRegister 测试远端注册后直接登录
func TestAuthService_RemoteRegister(t *testing.T) {
	ctx := context.Background()
	identity := newFakeIdentityClient()

	svc, _ := newTestAuthService(t, identity)

	result, err := svc.Register(ctx, "misty@cerulean.city", "starmie")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)

	// 远端重复注册被拒绝
	_, err = svc.Register(ctx, "misty@cerulean.city", "starmie")
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodeEmailExists, appErr.Code)
}

// TestAuthService_LocalFallbackRegister 测试远端不可达时本地注册
func TestAuthService_LocalFallbackRegister(t *testing.T) {
	ctx := context.Background()
	identity := newFakeIdentityClient()
	identity.unavailable = true

	svc, _ := newTestAuthService(t, identity)

	result, err := svc.Register(ctx, "brock@pewter.city", "onix1234")
	require.NoError(t, err)
	assert.Equal(t, "local", result.User.Source)
	assert.Equal(t, "brock", result.User.Name)

	// 本地重复注册被拒绝
	_, err = svc.Register(ctx, "brock@pewter.city", "onix1234")
	require.Error(t, err)

	// 注册后可重复登录
	result, err = svc.Login(ctx, "brock@pewter.city", "onix1234")
	require.NoError(t, err)
	assert.Equal(t, "local", result.User.Source)
}

// TestAuthService_Logout 测试登出后会话失效
func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	identity := newFakeIdentityClient()
	identity.users["ash@pallet.town"] = "pikachu"

	svc, _ := newTestAuthService(t, identity)

	result, err := svc.Login(ctx, "ash@pallet.town", "pikachu")
	require.NoError(t, err)

	svc.Logout(ctx, result.SessionToken)

	_, err = svc.Profile(ctx, result.SessionToken)
	require.Error(t, err)

	// 重复登出是空操作
	svc.Logout(ctx, result.SessionToken)
}
