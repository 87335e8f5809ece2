package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/velora-app/velora/internal/middleware"
	"github.com/velora-app/velora/internal/quiz"
	"github.com/velora-app/velora/internal/services"
	"github.com/velora-app/velora/internal/utils"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Max carries a selection cap when the error is about one.
	Max int `json:"max,omitempty"`
}

// writeError maps service and flow errors to HTTP statuses with a
// localized message where one exists. Anything unrecognized is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())

	if fe, ok := quiz.AsFlowError(err); ok {
		body := errorBody{Error: string(fe.Kind), Message: fe.Message}
		status := http.StatusBadRequest
		switch fe.Kind {
		case quiz.ErrorUnknownSession:
			status = http.StatusNotFound
		case quiz.ErrorBadTransition:
			status = http.StatusConflict
		case quiz.ErrorNotReady:
			body.Message = utils.T(locale, "quiz.answer.required")
		case quiz.ErrorTooManySelections:
			body.Message = fmt.Sprintf(utils.T(locale, "quiz.too_many"), fe.Max)
			body.Max = fe.Max
		case quiz.ErrorInvalidEmail:
			body.Message = utils.T(locale, "quiz.email.invalid")
		case quiz.ErrorNameRequired:
			body.Message = utils.T(locale, "quiz.name.required")
		}
		writeJSON(w, status, body)
		return
	}

	if se, ok := services.AsServiceError(err); ok {
		body := errorBody{Error: string(se.Code), Message: se.Message}
		status := http.StatusBadRequest
		switch se.Code {
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorPaymentFailed:
			status = http.StatusPaymentRequired
			body.Message = utils.T(locale, "payment.failed")
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
}
