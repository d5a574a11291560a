package public

import (
	"bytes"
	"embed"
	"github.com/langowen/converter/internal/converter/widget"
	"github.com/langowen/converter/internal/entities"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

type pageData struct {
	State       widget.Snapshot
	Alert       string
	Codes       []string
	PollSeconds int
}

type StateResponse struct {
	Session string             `json:"session"`
	Amount  string             `json:"amount"`
	From    string             `json:"from"`
	To      string             `json:"to"`
	Phase   string             `json:"phase"`
	Loading bool               `json:"loading"`
	Error   *ErrorResponse     `json:"error,omitempty"`
	Rates   map[string]float64 `json:"rates,omitempty"`
	Result  *ResultResponse    `json:"result,omitempty"`
}

type ResultResponse struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rate      float64 `json:"rate"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

type ErrorResponse struct {
	Message string `json:"error"`
	Kind    string `json:"kind"`
}

type UpdateRequest struct {
	Amount *string `json:"amount"`
	From   *string `json:"from"`
	To     *string `json:"to"`
}

func newStateResponse(session string, snap widget.Snapshot) StateResponse {
	resp := StateResponse{
		Session: session,
		Amount:  snap.Amount,
		From:    snap.From,
		To:      snap.To,
		Phase:   snap.Phase.String(),
		Loading: snap.IsLoading(),
	}

	if snap.ErrorMessage != "" {
		resp.Error = &ErrorResponse{Message: snap.ErrorMessage, Kind: snap.ErrorKind.String()}
	}
	if snap.RateTable != nil {
		resp.Rates = snap.RateTable.Rates
	}
	if snap.ShowResult() {
		result := newResultResponse(*snap.Result)
		resp.Result = &result
	}

	return resp
}

func newResultResponse(c entities.Conversion) ResultResponse {
	return ResultResponse{
		Amount:    c.Amount,
		From:      c.From,
		To:        c.To,
		Rate:      c.Rate,
		Value:     c.Value,
		Formatted: widget.FormatResult(c),
	}
}

func (s *Server) renderPage(w http.ResponseWriter, code int, snap widget.Snapshot, alert string) {
	data := pageData{
		State:       snap,
		Alert:       alert,
		Codes:       snap.RateTable.Codes(),
		PollSeconds: pollSeconds,
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		slog.Error("Failed to render page", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed to write page", "error", err)
	}
}
