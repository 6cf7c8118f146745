package expenses

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/auth"
)

// Handlers serves the expense endpoints. They must be mounted behind
// auth.JWTMiddleware.
type Handlers struct {
	repo Repository
}

// NewHandlers creates the expense handlers.
func NewHandlers(repo Repository) *Handlers {
	return &Handlers{repo: repo}
}

// RegisterRoutes mounts the expense routes on router.
func (h *Handlers) RegisterRoutes(router chi.Router) {
	router.Get("/", h.HandleList())
	router.Post("/", h.HandleCreate())
	router.Get("/{id}", h.HandleGet())
	router.Put("/{id}", h.HandleUpdate())
	router.Delete("/{id}", h.HandleDelete())
}

// HandleList godoc
// @Summary      List the caller's expenses
// @Description  Most recent date first.
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ExpenseListResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /api/v1/expenses [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		list, err := h.repo.ListForOwner(r.Context(), owner)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, ExpenseListResponse{Status: "success", Results: len(list), Data: list})
	}
}

// HandleGet godoc
// @Summary      Get one of the caller's expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Expense ID"
// @Success      200  {object}  ExpenseResponse
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /api/v1/expenses/{id} [get]
func (h *Handlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, err := ownerAndID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		expense, err := h.repo.GetOne(r.Context(), owner, id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, ExpenseResponse{Status: "success", Data: expense})
	}
}

// HandleCreate godoc
// @Summary      Create an expense owned by the caller
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      ExpenseRequest  true  "Expense"
// @Success      201   {object}  ExpenseResponse
// @Failure      400   {object}  apperror.ErrorResponse
// @Failure      401   {object}  apperror.ErrorResponse
// @Failure      500   {object}  apperror.ErrorResponse
// @Router       /api/v1/expenses [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		in, err := decodeInput(w, r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		expense, err := h.repo.Create(r.Context(), owner, in)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusCreated, ExpenseResponse{Status: "success", Data: expense})
	}
}

// HandleUpdate godoc
// @Summary      Replace one of the caller's expenses
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Expense ID"
// @Param        body  body      ExpenseRequest  true  "Expense"
// @Success      200   {object}  ExpenseResponse
// @Failure      400   {object}  apperror.ErrorResponse
// @Failure      401   {object}  apperror.ErrorResponse
// @Failure      404   {object}  apperror.ErrorResponse
// @Failure      500   {object}  apperror.ErrorResponse
// @Router       /api/v1/expenses/{id} [put]
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, err := ownerAndID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		in, err := decodeInput(w, r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		expense, err := h.repo.Update(r.Context(), owner, id, in)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, ExpenseResponse{Status: "success", Data: expense})
	}
}

// HandleDelete godoc
// @Summary      Delete one of the caller's expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Expense ID"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /api/v1/expenses/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, err := ownerAndID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if err := h.repo.Delete(r.Context(), owner, id); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, StatusResponse{Status: "success"})
	}
}

func ownerID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.NewUnauthenticatedError("authentication required", nil)
	}
	return id, nil
}

func ownerAndID(r *http.Request) (int64, int64, error) {
	owner, err := ownerID(r)
	if err != nil {
		return 0, 0, err
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, apperror.NewValidationError("invalid expense id", err)
	}
	return owner, id, nil
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, error) {
	var req ExpenseRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		return Input{}, err
	}
	return req.Input()
}
