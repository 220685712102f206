package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"library_api/internal/api/middleware"
	"library_api/internal/app/service"
	"library_api/internal/common"
	"library_api/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type BookHandler struct {
	bookService *service.BookService
}

func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/", h.viewBooks)
	r.With(middleware.RequireAuth).Get("/{id}", h.viewBookDetails)
	r.With(middleware.RequireRole(model.RoleEmployee)).Post("/", h.addBook)
	r.With(middleware.RequireRole(model.RoleEmployee)).Put("/{id}", h.editBook)
	r.With(middleware.RequireRole(model.RoleEmployee)).Delete("/{id}", h.deleteBook)
}

type paginationMeta struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalBooks  int `json:"totalBooks"`
	Limit       int `json:"limit"`
}

type bookListResponse struct {
	Data       []interface{}  `json:"data"`
	Pagination paginationMeta `json:"pagination"`
	Message    string         `json:"message"`
	Status     int            `json:"status"`
}

type bookResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
}

// parsePagination applies the page/limit defaults; anything non-numeric or
// below one falls back.
func parsePagination(r *http.Request) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

func (h *BookHandler) viewBooks(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	page, limit := parsePagination(r)

	books, total, err := h.bookService.ListBooks(r.Context(), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	shaped := make([]interface{}, 0, len(books))
	for i := range books {
		view, err := h.bookService.ShapeForRole(r.Context(), &books[i], user.Role)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		shaped = append(shaped, view)
	}

	totalPages := (total + limit - 1) / limit
	common.RespondWithJSON(w, http.StatusOK, bookListResponse{
		Data: shaped,
		Pagination: paginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalBooks:  total,
			Limit:       limit,
		},
		Message: "Books retrieved successfully",
		Status:  http.StatusOK,
	})
}

func (h *BookHandler) viewBookDetails(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	book, err := h.bookService.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := h.bookService.ShapeForRole(r.Context(), book, user.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *BookHandler) addBook(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	book, err := h.bookService.CreateBook(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, bookResponse{
		Data:    book,
		Message: "Book added successfully",
		Status:  http.StatusCreated,
	})
}

func (h *BookHandler) editBook(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	book, err := h.bookService.UpdateBook(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, bookResponse{
		Data:    book,
		Message: "Book updated successfully",
		Status:  http.StatusOK,
	})
}

func (h *BookHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.bookService.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
