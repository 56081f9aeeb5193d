package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"

	"github.com/zhouzirui/submission-desk/backend/internal/handler/submission"
	middlewarePkg "github.com/zhouzirui/submission-desk/backend/internal/middleware"
)

// NewRouter wires HTTP routes to the submission service.
func NewRouter(svc submission.Service, logger *httplog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger, []string{"/ping"}))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	submission.New(svc).RegisterRoutes(r)

	return r
}
