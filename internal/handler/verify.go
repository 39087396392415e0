package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/service"
)

// statusPageTmpl renders the verification result as a small standalone
// page in the site's dark styling.
var statusPageTmpl = template.Must(template.New("status").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>{{.Title}}</title>
    <style>
      body { margin: 0; font-family: Arial, sans-serif; background: #111; color: #ebebeb; }
      .container { max-width: 560px; margin: 12vh auto; background: #1f1f1f; border: 1px solid #2c2c2c; padding: 32px; }
      h1 { font-size: 22px; text-transform: uppercase; letter-spacing: 0.12em; margin-bottom: 12px; }
      p { font-size: 14px; color: #cfcfcf; line-height: 1.6; }
      a { color: #3ab7b9; text-decoration: none; }
      .badge { display: inline-block; padding: 6px 12px; font-size: 11px; text-transform: uppercase; letter-spacing: 0.2em; background: {{.BadgeColor}}; margin-bottom: 12px; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="badge">{{.Badge}}</div>
      <h1>{{.Title}}</h1>
      <p>{{.Message}}</p>
      <p><a href="/">Return to homepage</a></p>
    </div>
  </body>
</html>`))

type statusPageData struct {
	Title      string
	Badge      string
	BadgeColor string
	Message    string
}

// VerifyHandler serves the guest verification link.
//
// Routes handled:
// - GET /guest/verify -> Verify
type VerifyHandler struct {
	verificationService service.VerificationService
	logger              *slog.Logger
}

// NewVerifyHandler creates the verification handler.
func NewVerifyHandler(verificationService service.VerificationService, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		verificationService: verificationService,
		logger:              logger,
	}
}

// Verify handles GET /guest/verify?token=...
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := h.verificationService.Verify(r.Context(), token); err != nil {
		status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
		logError(h.logger, r, err, domain.ErrorCode(err), domain.ErrorOp(err), status)

		message := domain.ErrorMessage(err)
		if domain.ErrorCode(err) == domain.EINTERNAL {
			message = "Verification failed."
		}
		h.renderStatus(w, status, statusPageData{
			Title:      "Verification failed",
			Badge:      "Action required",
			BadgeColor: "#5c1b1b",
			Message:    message,
		})
		return
	}

	h.renderStatus(w, http.StatusOK, statusPageData{
		Title:      "Booking verified",
		Badge:      "Verified",
		BadgeColor: "#15474e",
		Message:    "Thanks for confirming your booking. Our team will contact you with the final pickup time.",
	})
}

func (h *VerifyHandler) renderStatus(w http.ResponseWriter, status int, data statusPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := statusPageTmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render status page", "error", err)
	}
}
