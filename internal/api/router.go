package api

import (
	"net/http"
	"time"

	"library_api/internal/api/handler"
	"library_api/internal/api/middleware"
	"library_api/internal/app/service"
	"library_api/internal/common"
	"library_api/internal/common/security"
	"library_api/internal/domain/repository"
	"library_api/internal/platform/cache"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	bookService *service.BookService,
	loanService *service.LoanService,
	userRepo repository.UserRepository,
	tokens cache.TokenStore,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Token verification parks the (possibly failed) result in the request
	// context; ResolveUser decides what to do with it. A request without a
	// usable token proceeds anonymously and only the guards reject it.
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(middleware.ResolveUser(userRepo, tokens))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		authHandler.RegisterRoutes(api)

		bookHandler := handler.NewBookHandler(bookService)
		api.Route("/books", bookHandler.RegisterRoutes)

		loanHandler := handler.NewLoanHandler(loanService)
		api.Route("/loans", loanHandler.RegisterRoutes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Not Found")
	})

	return r
}
