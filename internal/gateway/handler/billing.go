package handler

import (
	"io"
	"log"
	"net/http"
)

// HandleBillingWebhook receives subscription lifecycle events from the
// payment provider. The signature is verified before the payload is
// parsed at all; an unsigned or mis-signed body is rejected without
// touching its contents.
func (h *Handler) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if !h.billing.VerifySignature(body, r.Header.Get("X-Signature")) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}
	if err := h.billing.HandleEvent(r.Context(), body); err != nil {
		log.Printf("billing webhook failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
