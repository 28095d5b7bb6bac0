package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
)

// Realm is advertised in WWW-Authenticate challenges.
const Realm = "Lead Manager Admin"

const (
	defaultAdminUser     = "admin"
	defaultAdminPassword = "admin"
)

// Authenticate guards admin endpoints with HTTP Basic authentication.
type Authenticate struct {
	user           string
	password       string
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware. Blank credentials
// fall back to admin/admin.
func NewAuthenticate(user, password string, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	user = strings.TrimSpace(user)
	if user == "" {
		user = defaultAdminUser
	}
	password = strings.TrimSpace(password)
	if password == "" {
		password = defaultAdminPassword
	}

	return &Authenticate{
		user:           user,
		password:       password,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Handle rejects requests without valid admin credentials and stores the
// admin name in the request context otherwise.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, status, message := m.check(r.Header.Get("Authorization"))
		if status != 0 {
			m.logger.Debug("admin authentication failed", "path", r.URL.Path, "status", status)
			w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
			writeMessage(w, status, message)
			return
		}

		ctx := m.contextManager.SetAdminToContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// check returns a non-zero status with a message when the header is rejected.
func (m *Authenticate) check(header string) (string, int, string) {
	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return "", http.StatusUnauthorized, "Autenticação necessária."
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", http.StatusBadRequest, "Cabeçalho de autenticação inválido."
	}

	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", http.StatusBadRequest, "Cabeçalho de autenticação inválido."
	}

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(m.user)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passwordOK {
		return "", http.StatusUnauthorized, "Credenciais incorretas."
	}

	return user, 0, ""
}
