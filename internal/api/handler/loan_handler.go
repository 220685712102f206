package handler

import (
	"encoding/json"
	"net/http"

	"library_api/internal/api/middleware"
	"library_api/internal/app/service"
	"library_api/internal/common"
	"library_api/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type LoanHandler struct {
	loanService *service.LoanService
}

func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func (h *LoanHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(model.RoleCustomer)).Post("/loan", h.loanBook)
	r.With(middleware.RequireRole(model.RoleCustomer)).Post("/return", h.returnBook)
	r.With(middleware.RequireRole(model.RoleCustomer)).Get("/my", h.viewMyLoans)
	r.With(middleware.RequireRole(model.RoleEmployee)).Get("/", h.viewLoans)
}

type loanBookRequest struct {
	BookID string `json:"bookId"`
}

type returnBookRequest struct {
	LoanID string `json:"loanId"`
}

type loanResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
}

func (h *LoanHandler) loanBook(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var req loanBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	loan, err := h.loanService.LoanBook(r.Context(), user.ID, req.BookID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, loanResponse{
		Data:    h.loanService.ShapeForRole(loan, user.Role),
		Message: "Book loaned successfully",
		Status:  http.StatusOK,
	})
}

func (h *LoanHandler) returnBook(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var req returnBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	loan, err := h.loanService.ReturnBook(r.Context(), req.LoanID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, loanResponse{
		Data:    h.loanService.ShapeForRole(loan, user.Role),
		Message: "Book returned successfully",
		Status:  http.StatusOK,
	})
}

func (h *LoanHandler) viewMyLoans(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	loans, err := h.loanService.GetLoansByUser(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	shaped := make([]interface{}, 0, len(loans))
	for i := range loans {
		shaped = append(shaped, h.loanService.ShapeForRole(&loans[i], user.Role))
	}
	common.RespondWithJSON(w, http.StatusOK, shaped)
}

func (h *LoanHandler) viewLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loanService.GetAllLoans(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, loans)
}
