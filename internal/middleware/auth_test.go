package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealerstock/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims JWTClaims, secret string) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func protectedRouter(roles ...model.Role) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{JWTAuth(testSecret)}
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		a := GetActor(c)
		parent := ""
		if a.ParentDealerID != nil {
			parent = a.ParentDealerID.String()
		}
		c.JSON(http.StatusOK, gin.H{"id": a.ID.String(), "role": string(a.Role), "parent": parent})
	})
	r.GET("/p", chain...)
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	dealerID := uuid.New()
	parent := uuid.New()

	tests := []struct {
		name   string
		token  func(t *testing.T) string
		status int
	}{
		{"missing header", func(*testing.T) string { return "" }, http.StatusUnauthorized},
		{"garbage", func(*testing.T) string { return "not-a-jwt" }, http.StatusUnauthorized},
		{"access token", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "dealer", TokenType: "access"}, testSecret)
		}, http.StatusOK},
		{"refresh token", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "dealer", TokenType: "refresh"}, testSecret)
		}, http.StatusUnauthorized},
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "dealer", TokenType: "access"}, "other")
		}, http.StatusUnauthorized},
		{"expired", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "dealer", TokenType: "access",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}, testSecret)
		}, http.StatusUnauthorized},
		{"unknown role", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "cashier", TokenType: "access"}, testSecret)
		}, http.StatusUnauthorized},
		{"bad account id", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: "42", Role: "admin", TokenType: "access"}, testSecret)
		}, http.StatusUnauthorized},
		{"sub-dealer without parent", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "sub_dealer", TokenType: "access"}, testSecret)
		}, http.StatusUnauthorized},
		{"sub-dealer with parent", func(t *testing.T) string {
			return signToken(t, JWTClaims{AccountID: dealerID.String(), Role: "sub_dealer", ParentDealerID: parent.String(), TokenType: "access"}, testSecret)
		}, http.StatusOK},
	}

	r := protectedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.token(t))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestJWTAuth_ResolvesActor(t *testing.T) {
	id, parent := uuid.New(), uuid.New()
	token := signToken(t, JWTClaims{AccountID: id.String(), Role: "sub_dealer", ParentDealerID: parent.String(), TokenType: "access"}, testSecret)

	w := call(protectedRouter(), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+id.String()+`","role":"sub_dealer","parent":"`+parent.String()+`"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	admin := signToken(t, JWTClaims{AccountID: uuid.NewString(), Role: "admin", TokenType: "access"}, testSecret)
	dealer := signToken(t, JWTClaims{AccountID: uuid.NewString(), Role: "dealer", TokenType: "access"}, testSecret)

	r := protectedRouter(model.RoleAdmin)
	assert.Equal(t, http.StatusOK, call(r, admin).Code)
	assert.Equal(t, http.StatusForbidden, call(r, dealer).Code)

	r = protectedRouter(model.RoleAdmin, model.RoleDealer)
	assert.Equal(t, http.StatusOK, call(r, dealer).Code)
}
