package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/taskforge/taskforge/internal/auth"
	httpmiddleware "github.com/taskforge/taskforge/internal/http"
	"github.com/taskforge/taskforge/internal/logger"
	"github.com/taskforge/taskforge/internal/service"
)

// Server wraps the HTTP handlers and the security middleware chain.
type Server struct {
	authenticator *auth.Authenticator
	policy        *auth.Policy
	authHandler   *AuthHandler
	userHandler   *UserHandler
	taskHandler   *TaskHandler
}

// NewServer creates a server over the given services. The route policy is
// the default table; every registered route must have a policy entry or it
// is unreachable without a credential.
func NewServer(authenticator *auth.Authenticator, authSvc *service.AuthService, userSvc *service.UserService, taskSvc *service.TaskService) *Server {
	validate := validator.New(validator.WithRequiredStructEnabled())

	return &Server{
		authenticator: authenticator,
		policy:        auth.DefaultPolicy(),
		authHandler:   NewAuthHandler(authSvc, validate),
		userHandler:   NewUserHandler(userSvc, validate),
		taskHandler:   NewTaskHandler(taskSvc, validate),
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)

	mux.HandleFunc("GET /users/me", s.userHandler.Me)
	mux.HandleFunc("GET /users", s.userHandler.List)
	mux.HandleFunc("GET /users/{id}", s.userHandler.Get)
	mux.HandleFunc("PATCH /users/{id}", s.userHandler.Update)
	mux.HandleFunc("PATCH /users/{id}/role", s.userHandler.ChangeRole)
	mux.HandleFunc("DELETE /users/{id}", s.userHandler.Delete)

	mux.HandleFunc("GET /tasks", s.taskHandler.List)
	mux.HandleFunc("POST /tasks", s.taskHandler.Create)
	mux.HandleFunc("GET /tasks/{id}", s.taskHandler.Get)
	mux.HandleFunc("PUT /tasks/{id}", s.taskHandler.Update)
	mux.HandleFunc("PATCH /tasks/{id}/conclude", s.taskHandler.Conclude)
	mux.HandleFunc("DELETE /tasks/{id}", s.taskHandler.Delete)

	var handler http.Handler = mux
	handler = authorizeMiddleware(s.policy)(handler)
	handler = authenticateMiddleware(s.authenticator)(handler)
	handler = logger.NewRequests(log)(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)

	return handler
}
