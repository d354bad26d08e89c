package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-web/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
)

var errBadRequest = errors.New("bad request")

type moveRequest struct {
	Cell *int `json:"cell"`
}

type jumpRequest struct {
	Index *int `json:"index"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pageData struct {
	View               *entity.GameView
	CelebrationSeconds int
}

func (that *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handlePage")

	view, err := that.game.GetGame(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		log.Error("failed to get game", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		View:               view,
		CelebrationSeconds: max(1, int(that.celebration.Seconds()+0.5)),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err = that.page.Execute(w, data); err != nil {
		log.Error("failed to render page", "error", err)
	}
}

func (that *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	cell, err := pathInt(r, "cell")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, err = that.game.ApplyMove(r.Context(), sessionFromContext(r.Context()), cell)
	that.redirectHome(w, r, "handleCell", err)
}

func (that *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	index, err := pathInt(r, "index")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, err = that.game.JumpTo(r.Context(), sessionFromContext(r.Context()), index)
	that.redirectHome(w, r, "handleJump", err)
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, err := that.game.Reset(r.Context(), sessionFromContext(r.Context()))
	that.redirectHome(w, r, "handleReset", err)
}

// redirectHome sends the browser back to the board. Rejected clicks are not
// errors to the player: nothing happens.
func (that *Server) redirectHome(w http.ResponseWriter, r *http.Request, method string, err error) {
	log := that.logger.With("method", method)

	switch {
	case err == nil:
	case apperror.IsRuleViolation(err):
		log.Debug("action ignored", "reason", err)
	default:
		log.Error("failed to handle action", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	view, err := that.game.GetGame(r.Context(), sessionFromContext(r.Context()))
	that.respondJSON(w, "handleGetGame", view, err)
}

func (that *Server) handleAPIMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Cell == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	view, err := that.game.ApplyMove(r.Context(), sessionFromContext(r.Context()), *req.Cell)
	that.respondJSON(w, "handleAPIMove", view, err)
}

func (that *Server) handleAPIJump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Index == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "index is required"})
		return
	}

	view, err := that.game.JumpTo(r.Context(), sessionFromContext(r.Context()), *req.Index)
	that.respondJSON(w, "handleAPIJump", view, err)
}

func (that *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	view, err := that.game.Reset(r.Context(), sessionFromContext(r.Context()))
	that.respondJSON(w, "handleAPIReset", view, err)
}

func (that *Server) respondJSON(w http.ResponseWriter, method string, view *entity.GameView, err error) {
	log := that.logger.With("method", method)

	switch {
	case err == nil:
	case apperror.IsRuleViolation(err):
		log.Debug("action ignored", "reason", err)
	default:
		log.Error("failed to handle action", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", errBadRequest, name, raw)
	}

	return value, nil
}
