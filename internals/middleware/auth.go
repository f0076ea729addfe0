package middle

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"watchpost/internals/security"
	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/google/uuid"
)

type Middleware func(http.Handler) http.Handler

type accountCtxKeyType struct{}

var accountCtxKey = accountCtxKeyType{}

// Account is the authenticated principal handlers read from the
// request context.
type Account struct {
	AccountID uuid.UUID
	Email     string
}

type AuthMiddleware struct {
	tokenSvc *security.TokenService
}

func NewAuthMiddleware(tokenSvc *security.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc: tokenSvc,
	}
}

// Handle validates the bearer token and stores the resolved account
// in the request context.
func (a *AuthMiddleware) Handle(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		token, err := a.extractBearerToken(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "", apperror.Unauthorised, err.Error())
			return
		}

		claims, err := a.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			utils.FromAppError(w, "", err)
			return
		}

		accountID, err := uuid.Parse(claims.AccountID)
		if err != nil || claims.Email == "" {
			utils.WriteError(w, http.StatusUnauthorized, "", apperror.Unauthorised, "invalid token claims")
			return
		}

		ctx := context.WithValue(r.Context(), accountCtxKey, &Account{
			AccountID: accountID,
			Email:     claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

func (*AuthMiddleware) extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid Authorization header")
	}
	return parts[1], nil
}

func AccountFromContext(ctx context.Context) (*Account, bool) {
	acct, ok := ctx.Value(accountCtxKey).(*Account)
	return acct, ok
}
