// middleware/teacher.go
package middleware

import (
	"net/http"

	"learning-platform/store"
)

// TeacherOnly guards the instructor surface. It runs behind Auth, so a
// missing user id means the chain is miswired.
func TeacherOnly(st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := UserID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := st.GetUserByID(r.Context(), id)
			if err != nil || !user.IsTeacher {
				http.Error(w, "Teacher access required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
