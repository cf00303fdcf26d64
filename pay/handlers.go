package pay

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"vendia/apperr"
	"vendia/orders"
	"vendia/utils"

	"github.com/julienschmidt/httprouter"
)

// CreateIntentHandler starts client-side payment for a placed order.
func (rc *Reconciler) CreateIntentHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	orderID := ps.ByName("orderId")

	actor := orders.Actor{
		UserID: utils.GetUserIDFromRequest(r),
		Caps:   utils.GetCapsFromRequest(r),
	}
	if actor.UserID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ref, err := rc.CreateIntent(ctx, orderID, actor)
	if err != nil {
		log.Println("CreateIntent error:", err)
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, ref)
}

// WebhookHandler receives gateway callbacks. Bad signatures answer 401;
// every verified event is acked with 200 whether or not it changed
// anything, so the gateway never retries a condition that cannot resolve.
func (rc *Reconciler) WebhookHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Cap webhook bodies at 1 MB
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	outcome, err := rc.ApplyEvent(ctx, payload, r.Header.Get(SignatureHeader))
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			utils.RespondWithError(w, err)
			return
		}
		// Infrastructure failure: let the gateway retry.
		log.Println("WebhookHandler error:", err)
		http.Error(w, "event processing failed", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": outcome})
}
