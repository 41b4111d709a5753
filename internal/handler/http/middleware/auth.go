package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-agent-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired ensures the request carries a valid UI token bound to
// the enrolled employee.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "missing UI token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.Unauthorized(w, "invalid UI token")
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "ui" {
				response.Unauthorized(w, "invalid UI token")
				return
			}

			employeeID, ok := claims["employee_id"].(string)
			if !ok || employeeID == "" {
				response.Unauthorized(w, "UI token is not bound to an employee")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
