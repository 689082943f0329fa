package webapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/webstore/internal/dto"
)

func (h *handlers) orderRoutes(r chi.Router) {
	r.Get("/user/{userName}", h.getUserOrders)
	r.Get("/{id}", h.getOrder)
	r.Post("/{userName}", h.createOrder)
}

func (h *handlers) getUserOrders(w http.ResponseWriter, r *http.Request) {
	userName, err := pathParam(r, "userName")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orders, err := h.services.Orders.GetUserOrders(r.Context(), userName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OrdersToDTO(orders))
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.services.Orders.GetOrderByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if order == nil {
		writeFound[dto.OrderDTO](w, nil)
		return
	}
	out := dto.OrderToDTO(*order)
	writeFound(w, &out)
}

func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	cart, err := dto.ToCartView(req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userName, err := pathParam(r, "userName")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.services.Orders.CreateOrder(r.Context(), userName, cart, req.Order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.OrderToDTO(*order))
}
