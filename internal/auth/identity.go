package auth

import (
	"context"
	"net/http"
)

// IdentityHeader carries the caller's user id. Authentication itself is
// handled upstream; the service only needs the id string.
const IdentityHeader = "X-User-Id"

type User struct {
	ID string
}

type userKeyType struct{}

var userKey userKeyType

// Identity extracts the user id header and stores it in the request
// context. Requests without an identity are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(IdentityHeader)
		if userID == "" {
			http.Error(w, "missing identity header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, User{ID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MustHaveUser returns the request's user. It panics when called outside
// the Identity middleware; handlers are always mounted behind it.
func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		panic("no user found in context")
	}
	return user
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}
