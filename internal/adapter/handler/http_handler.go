package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/core/service"
)

type HTTPHandler struct {
	catalog   *service.CatalogService
	customers *service.CustomerService
	promos    *service.PromoService
	orders    *service.OrderService
	payments  *service.PaymentService
	logger    *zap.Logger
}

func NewHTTPHandler(
	catalog *service.CatalogService,
	customers *service.CustomerService,
	promos *service.PromoService,
	orders *service.OrderService,
	payments *service.PaymentService,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		catalog:   catalog,
		customers: customers,
		promos:    promos,
		orders:    orders,
		payments:  payments,
		logger:    logger,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeactivateProduct)

	mux.HandleFunc("POST /api/customers", h.CreateCustomer)
	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("GET /api/customers/{id}", h.GetCustomer)
	mux.HandleFunc("PUT /api/customers/{id}", h.UpdateCustomer)

	mux.HandleFunc("POST /api/promos", h.CreatePromo)
	mux.HandleFunc("GET /api/promos", h.ListPromos)
	mux.HandleFunc("GET /api/promos/check", h.CheckPromo)
	mux.HandleFunc("POST /api/promos/apply", h.ApplyPromo)
	mux.HandleFunc("GET /api/promos/{id}", h.GetPromo)
	mux.HandleFunc("PUT /api/promos/{id}", h.UpdatePromo)
	mux.HandleFunc("DELETE /api/promos/{id}", h.DeletePromo)

	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PUT /api/orders/{id}/confirm", h.ConfirmOrder)
	mux.HandleFunc("PUT /api/orders/{id}/cancel", h.CancelOrder)
	mux.HandleFunc("PUT /api/orders/{id}/reject", h.RejectOrder)

	mux.HandleFunc("POST /api/payments", h.CreatePayment)
	mux.HandleFunc("GET /api/payments/{id}", h.GetPayment)
	mux.HandleFunc("GET /api/payments/order/{orderId}", h.ListOrderPayments)
	mux.HandleFunc("GET /api/payments/order/{orderId}/summary", h.PaymentSummary)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Products

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if !h.decode(w, r, &in) {
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActiveProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if !h.decode(w, r, &in) {
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeactivateProduct(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customers

func (h *HTTPHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in service.CustomerInput
	if !h.decode(w, r, &in) {
		return
	}
	customer, err := h.customers.CreateCustomer(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *HTTPHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *HTTPHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.GetCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *HTTPHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in service.CustomerInput
	if !h.decode(w, r, &in) {
		return
	}
	customer, err := h.customers.UpdateCustomer(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// Promos

func (h *HTTPHandler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var in service.PromoInput
	if !h.decode(w, r, &in) {
		return
	}
	promo, err := h.promos.CreatePromo(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, promo)
}

func (h *HTTPHandler) ListPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promos.ListPromos(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promos)
}

func (h *HTTPHandler) GetPromo(w http.ResponseWriter, r *http.Request) {
	promo, err := h.promos.GetPromo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

func (h *HTTPHandler) UpdatePromo(w http.ResponseWriter, r *http.Request) {
	var in service.PromoInput
	if !h.decode(w, r, &in) {
		return
	}
	promo, err := h.promos.UpdatePromo(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

func (h *HTTPHandler) DeletePromo(w http.ResponseWriter, r *http.Request) {
	if err := h.promos.DeletePromo(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) CheckPromo(w http.ResponseWriter, r *http.Request) {
	promo, err := h.promos.Validate(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":          true,
		"code":           promo.Code,
		"remaining_uses": promo.RemainingUses(),
	})
}

func (h *HTTPHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	promo, err := h.promos.ApplyAndIncrement(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

// Orders

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in service.CreateOrderInput
	if !h.decode(w, r, &in) {
		return
	}
	order, err := h.orders.CreateOrder(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		Status:     domain.OrderStatus(r.URL.Query().Get("status")),
		CustomerID: r.URL.Query().Get("customer_id"),
	}
	orders, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Confirm(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Payments

func (h *HTTPHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePaymentInput
	if !h.decode(w, r, &in) {
		return
	}
	payment, err := h.payments.CreatePayment(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *HTTPHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *HTTPHandler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *HTTPHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.payments.Summary(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Plumbing

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrPromoNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusGone
	case errors.Is(err, domain.ErrPromoExhausted),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrCashLimitExceeded),
		errors.Is(err, domain.ErrAmountExceedsRemaining),
		errors.Is(err, domain.ErrMissingReference),
		errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
