package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"id": ctx.GetUint("id"), "role": ctx.GetString("role"), "email": ctx.GetString("email")})
}

func authRouter(t *testing.T) (*gin.Engine, *models.User) {
	t.Setenv("JWT_SECRET", "test-secret")
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)
	user := &models.User{Name: "Dana", Email: "dana@example.com", Role: types.ROLE_DRIVER}
	require.NoError(t, store.CreateUser(context.Background(), user))

	r := gin.New()
	r.GET("/me", AuthMiddleware(store), whoami)
	r.GET("/admin", AuthMiddleware(store), RequireRole(types.ROLE_MANAGER), whoami)
	return r, user
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareLoadsCaller(t *testing.T) {
	r, user := authRouter(t)
	token, err := GenerateToken(user, time.Now())
	require.NoError(t, err)

	w := get(r, "/me", token)

	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.Parse(w.Body.String())
	assert.Equal(t, uint64(user.ID), body.Get("id").Uint())
	assert.Equal(t, "driver", body.Get("role").String())
	assert.Equal(t, "dana@example.com", body.Get("email").String())
}

func TestAuthMiddlewareRejects(t *testing.T) {
	r, user := authRouter(t)

	expired, err := GenerateToken(user, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	ghost, err := GenerateToken(&models.User{ID: 999}, time.Now())
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"no token":        "",
		"garbage":         "not.a.token",
		"expired":         expired,
		"unknown user":    ghost,
		"wrong signature": foreign,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, "/me", token).Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r, user := authRouter(t)
	token, err := GenerateToken(user, time.Now())
	require.NoError(t, err)

	w := get(r, "/admin", token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", gjson.Get(w.Body.String(), "code").String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID, SecureHeaders)
	r.GET("/", func(ctx *gin.Context) { ctx.String(http.StatusOK, ctx.GetString("request_id")) })

	w := get(r, "/", "")
	generated := w.Header().Get(REQUEST_ID_HEADER)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(REQUEST_ID_HEADER, "req-42")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(REQUEST_ID_HEADER))
}

const bookedBody = `{"booking_id":11}`

func idempotentRouter(status int) (*gin.Engine, redismock.ClientMock) {
	rdb, mock := redismock.NewClientMock()
	r := gin.New()
	r.POST("/bookings", func(ctx *gin.Context) { ctx.Set("id", uint(7)) }, Idempotency(rdb), func(ctx *gin.Context) {
		ctx.JSON(status, gin.H{"booking_id": 11})
	})
	return r, mock
}

func post(r http.Handler, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings", nil)
	if key != "" {
		req.Header.Set(IDEMPOTENCY_HEADER, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func storedCreated(t *testing.T) string {
	t.Helper()
	value, err := encodeResponse(http.StatusCreated, "application/json; charset=utf-8", []byte(bookedBody))
	require.NoError(t, err)
	return value
}

func TestIdempotencyFirstRequestStoresResponse(t *testing.T) {
	r, mock := idempotentRouter(http.StatusCreated)
	key := IdempotencyKey(7, "abc")
	mock.ExpectSetNX(key, IDEMPOTENCY_PENDING, IDEMPOTENCY_TTL).SetVal(true)
	mock.ExpectSet(key, storedCreated(t), IDEMPOTENCY_TTL).SetVal("OK")

	w := post(r, "abc")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, bookedBody, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepeatReplaysResponse(t *testing.T) {
	r, mock := idempotentRouter(http.StatusInternalServerError)
	key := IdempotencyKey(7, "abc")
	mock.ExpectSetNX(key, IDEMPOTENCY_PENDING, IDEMPOTENCY_TTL).SetVal(false)
	mock.ExpectGet(key).SetVal(storedCreated(t))

	w := post(r, "abc")

	// the handler would answer 500; the stored 201 wins
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(IDEMPOTENCY_REPLAY_HEADER))
	assert.Equal(t, int64(11), gjson.Get(w.Body.String(), "booking_id").Int())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepeatWhileInFlightIsRejected(t *testing.T) {
	r, mock := idempotentRouter(http.StatusCreated)
	key := IdempotencyKey(7, "abc")
	mock.ExpectSetNX(key, IDEMPOTENCY_PENDING, IDEMPOTENCY_TTL).SetVal(false)
	mock.ExpectGet(key).SetVal(IDEMPOTENCY_PENDING)

	w := post(r, "abc")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_request", gjson.Get(w.Body.String(), "code").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyFailureFreesKey(t *testing.T) {
	r, mock := idempotentRouter(http.StatusConflict)
	key := IdempotencyKey(7, "abc")
	mock.ExpectSetNX(key, IDEMPOTENCY_PENDING, IDEMPOTENCY_TTL).SetVal(true)
	mock.ExpectDel(key).SetVal(1)

	assert.Equal(t, http.StatusConflict, post(r, "abc").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyWithoutHeader(t *testing.T) {
	r, mock := idempotentRouter(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, post(r, "").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecodeResponse(t *testing.T) {
	_, ok := decodeResponse(IDEMPOTENCY_PENDING)
	assert.False(t, ok)
	_, ok = decodeResponse("done")
	assert.False(t, ok)

	res, ok := decodeResponse(storedCreated(t))
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, bookedBody, res.Body)
}
