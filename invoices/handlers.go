package invoices

import (
	"context"
	"log"
	"net/http"
	"time"

	"vendia/apperr"
	"vendia/orders"
	"vendia/utils"

	"github.com/julienschmidt/httprouter"
)

// GetInvoiceHandler returns the invoice document for a paid order,
// generating it on first request.
func (s *Service) GetInvoiceHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderId")
	userID := utils.GetUserIDFromRequest(r)
	caps := utils.GetCapsFromRequest(r)

	inv, err := s.Generate(ctx, orderID)
	if err != nil {
		log.Println("GetInvoice error:", err)
		utils.RespondWithError(w, err)
		return
	}

	actor := orders.Actor{UserID: userID, Caps: caps}
	if inv.UserID != userID && !actor.Has(orders.CapFulfillment) {
		utils.RespondWithError(w, apperr.New(apperr.NotFound, "invoice", orderID, "invoice not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, inv)
}

// InvoicePDFHandler renders the invoice as a downloadable PDF.
func (s *Service) InvoicePDFHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	orderID := ps.ByName("orderId")
	userID := utils.GetUserIDFromRequest(r)
	caps := utils.GetCapsFromRequest(r)

	inv, err := s.Generate(ctx, orderID)
	if err != nil {
		log.Println("InvoicePDF error:", err)
		utils.RespondWithError(w, err)
		return
	}

	actor := orders.Actor{UserID: userID, Caps: caps}
	if inv.UserID != userID && !actor.Has(orders.CapFulfillment) {
		utils.RespondWithError(w, apperr.New(apperr.NotFound, "invoice", orderID, "invoice not found"))
		return
	}

	pdfBytes, err := RenderPDF(inv)
	if err != nil {
		log.Println("InvoicePDF render error:", err)
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+inv.InvoiceID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
