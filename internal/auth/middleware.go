package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/jobboard/internal/observability/context"
	"github.com/smallbiznis/jobboard/internal/usercontext"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "bearer "
	contextUserIDKey    = "user_id"
)

// Authenticate requires a valid bearer token and stores the caller identity
// on the request context.
func Authenticate(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader(headerAuthorization))
		if !ok {
			abort(c, ErrMissingToken)
			return
		}

		identity, err := v.Verify(raw)
		if err != nil {
			abort(c, err)
			return
		}

		ctx := usercontext.WithIdentity(c.Request.Context(), identity)
		ctx = obscontext.WithUserID(ctx, identity.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, identity.UserID)
		c.Next()
	}
}

// RequireBusiness rejects callers that cannot own job postings.
func RequireBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := usercontext.IdentityFromContext(c.Request.Context())
		if !ok {
			abort(c, ErrMissingToken)
			return
		}
		if !identity.IsBusiness() {
			abort(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
