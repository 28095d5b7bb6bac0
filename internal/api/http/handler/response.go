package handler

import (
	"encoding/json"
	"net/http"
)

const jsonContentType = "application/json; charset=utf-8"

// Response messages.
const (
	MessageInvalidJSON      = "JSON inválido."
	MessageInvalidData      = "Dados inválidos."
	MessageLeadNotFound     = "Lead não encontrado."
	MessageRouteNotFound    = "Rota não encontrada."
	MessageMethodNotAllowed = "Método não permitido."
	MessageInternal         = "Erro interno do servidor."
)

type messageResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, MessageRouteNotFound)
}

// MethodNotAllowed answers known routes called with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, MessageMethodNotAllowed)
}
