package middleware

import (
	"net/http"
	"strings"

	"dealerstock/internal/apierror"
	"dealerstock/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	ActorKey  = "actor"
)

// JWTClaims are the custom claims embedded in every token.
type JWTClaims struct {
	AccountID      string `json:"account_id"`
	Role           string `json:"role"`
	ParentDealerID string `json:"parent_dealer_id,omitempty"`
	TokenType      string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer access token on every protected route and
// resolves it into a model.Actor.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}

		actor, ok := claims.actor()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("malformed token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

func (cl *JWTClaims) actor() (model.Actor, bool) {
	id, err := uuid.Parse(cl.AccountID)
	if err != nil {
		return model.Actor{}, false
	}
	a := model.Actor{Role: model.Role(cl.Role), ID: id}
	switch a.Role {
	case model.RoleAdmin, model.RoleDealer:
	case model.RoleSubDealer:
		parent, err := uuid.Parse(cl.ParentDealerID)
		if err != nil {
			return model.Actor{}, false
		}
		a.ParentDealerID = &parent
	default:
		return model.Actor{}, false
	}
	return a, true
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor, ok := c.Get(ActorKey)
		if !ok || !allowed[actor.(model.Actor).Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetActor returns the caller resolved by JWTAuth.
func GetActor(c *gin.Context) model.Actor {
	actor, _ := c.MustGet(ActorKey).(model.Actor)
	return actor
}
