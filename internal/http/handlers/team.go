package handlers

import (
	"context"
	"net/http"

	"github.com/lumen-aesthetics/receptionist/internal/messaging"
)

// NotifyTeam handles POST /notify_team: the caller asked for a human, so
// the staff line gets a callback alert.
func (h *ToolHandler) NotifyTeam() http.HandlerFunc {
	return h.handleTool("notify_team", false, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		if h.notifier == nil {
			return "Notification failed.", "no_channel"
		}
		err := h.notifier.AlertTeam(ctx, inv.Arg("name"), inv.Phone(), inv.Arg("reason"))
		if err != nil {
			h.logger.Error("team alert failed", "error", err)
			return "Notification failed.", "error"
		}
		return "I have messaged the team. They will contact you shortly.", "ok"
	})
}

// SendInsurance handles POST /send_insurance: texts the secure upload link
// to the caller.
func (h *ToolHandler) SendInsurance() http.HandlerFunc {
	return h.handleTool("send_insurance", false, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		phone := inv.Phone()
		if phone == "" || h.sms == nil {
			return "error sending link", "invalid_input"
		}
		body := messaging.InsuranceLinkMessage(h.businessName, h.insuranceURL)
		if err := h.sms.SendSMS(ctx, messaging.NormalizePhone(phone), body); err != nil {
			h.logger.Error("insurance link send failed", "error", err)
			return "error sending link", "error"
		}
		return "Link sent successfully.", "ok"
	})
}

// Transfer handles POST /transfer. The assistant performs the actual
// handoff; this tool only confirms the intent.
func (h *ToolHandler) Transfer() http.HandlerFunc {
	return h.handleTool("transfer", false, func(_ context.Context, _ *ToolInvocation) (string, string) {
		return `Transfer approved. Tell the user: "I am connecting you to our office manager now. Please hold." and then stay silent.`, "ok"
	})
}
