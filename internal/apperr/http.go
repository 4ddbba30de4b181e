package apperr

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/natours/natours-api/internal/utils"
)

const genericMessage = "Something went wrong"

// Body is the JSON shape of every error response.
type Body struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Public returns the status code and body a client is allowed to see for err.
// Outside development, internal errors are reduced to a generic message.
func Public(err error, development bool) (int, Body) {
	e := From(err)
	status := e.Status()

	body := Body{
		Status:  statusText(status),
		Message: e.Message,
	}
	if e.Kind == KindInternal && !development {
		body.Message = genericMessage
	}
	if development {
		body.Error = err.Error()
	}

	return status, body
}

func statusText(status int) string {
	if status >= 400 && status < 500 {
		return "fail"
	}
	return "error"
}

// Responder writes errors as JSON and logs the ones the client cannot act on.
type Responder struct {
	Logger      *slog.Logger
	Development bool
}

func (rs Responder) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Public(err, rs.Development)

	if status >= http.StatusInternalServerError && rs.Logger != nil {
		rs.Logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}

	utils.WriteJSON(w, status, body)
}

// NotFound answers requests for routes that do not exist.
func (rs Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.Write(w, r, New(KindNotFound, "Can't find "+r.URL.Path+" on this server!"))
}
