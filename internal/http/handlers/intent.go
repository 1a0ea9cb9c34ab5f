package handlers

import (
	"encoding/json"
	"io"
	"net/http"
)

type intentRequest struct {
	Intent string `json:"intent"`
	Name   string `json:"name"`
}

type intentResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Intent handles POST /intent, a plain JSON route used by the web chat
// widget rather than the voice platform.
func (h *ToolHandler) Intent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var req intentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		resp := intentResponse{OK: true, Message: "Thanks for reaching out. A team member will assist you shortly."}
		if req.Intent == "book_appointment" {
			resp.Message = "Thanks " + req.Name + ". I can help you with booking an appointment."
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("failed to write intent response", "error", err)
		}
	}
}
