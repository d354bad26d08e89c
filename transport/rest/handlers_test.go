package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
	"github.com/rocketscienceinc/tictactoe-web/internal/repository"
	"github.com/rocketscienceinc/tictactoe-web/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-web/testing/suite"
)

const testSession = "0f8fad5b-d9cb-469f-a165-70867728950e"

var errStorageDown = errors.New("storage down")

type brokenRepo struct{}

func (brokenRepo) CreateOrUpdate(context.Context, *entity.Session) error { return errStorageDown }

func (brokenRepo) GetByID(context.Context, string) (*entity.Session, error) {
	return nil, errStorageDown
}

func (brokenRepo) DeleteByID(context.Context, string) error { return errStorageDown }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	manager := usecase.NewGameManager(suite.NewLogger(), repository.NewMemoryGameRepository(), usecase.Options{
		CelebrationDuration: time.Hour,
		SessionTTL:          time.Hour,
		CleanupInterval:     time.Minute,
	})
	t.Cleanup(manager.Close)

	return New(suite.NewLogger(), manager, 4*time.Second, time.Hour).Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: testSession})
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) *entity.GameView {
	t.Helper()

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view entity.GameView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))

	return &view
}

func TestPing(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestSessionCookie(t *testing.T) {
	t.Run("Issues a cookie to new visitors", func(t *testing.T) {
		// Given: a request without a session cookie
		router := newTestRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
		rec := httptest.NewRecorder()

		// When: it is served
		router.ServeHTTP(rec, req)

		// Then: a session cookie with a UUID is set
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, sessionCookieName, cookies[0].Name)
		assert.Len(t, cookies[0].Value, len(testSession))
	})

	t.Run("Keeps an existing cookie", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodGet, "/api/game", "")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, testSession, cookies[0].Value)
	})

	t.Run("Cookie lives as long as the server session", func(t *testing.T) {
		// Given: a server whose sessions live for three days
		manager := usecase.NewGameManager(suite.NewLogger(), repository.NewMemoryGameRepository(), usecase.Options{})
		t.Cleanup(manager.Close)
		router := New(suite.NewLogger(), manager, time.Second, 72*time.Hour).Router()

		// When: a page is requested
		rec := doRequest(t, router, http.MethodGet, "/api/game", "")

		// Then: the cookie expires no earlier than the session
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.WithinDuration(t, time.Now().Add(72*time.Hour), cookies[0].Expires, time.Minute)
	})

	t.Run("Separate sessions play separate games", func(t *testing.T) {
		// Given: one session made a move
		router := newTestRouter(t)
		doRequest(t, router, http.MethodPost, "/api/game/moves", `{"cell":4}`)

		// When: a new visitor asks for its game
		req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		// Then: it sees an empty board
		view := decodeView(t, rec)
		assert.Equal(t, entity.Board{}, view.Board)
	})
}

func TestAPI(t *testing.T) {
	t.Run("Plays, jumps and resets", func(t *testing.T) {
		router := newTestRouter(t)

		// When: X takes the top row
		var view *entity.GameView
		for _, cell := range []string{"0", "4", "1", "5", "2"} {
			view = decodeView(t, doRequest(t, router, http.MethodPost, "/api/game/moves", `{"cell":`+cell+`}`))
		}

		// Then: X has won and the celebration is on
		assert.Equal(t, entity.StatusWon, view.Status)
		assert.Equal(t, entity.PlayerX, view.Winner)
		assert.Equal(t, []int{0, 1, 2}, view.Line)
		assert.True(t, view.Celebrating)

		// When: another move is attempted
		view = decodeView(t, doRequest(t, router, http.MethodPost, "/api/game/moves", `{"cell":8}`))

		// Then: nothing happens
		assert.Len(t, view.History, 6)
		assert.Equal(t, entity.EmptyCell, view.Board[8])

		// When: jumping back to move 2
		view = decodeView(t, doRequest(t, router, http.MethodPost, "/api/game/jump", `{"index":2}`))

		// Then: the earlier board is viewed without the celebration
		assert.Equal(t, 2, view.CurrentIndex)
		assert.Equal(t, entity.StatusOngoing, view.Status)
		assert.False(t, view.Celebrating)
		assert.True(t, view.History[2].Active)

		// When: resetting
		view = decodeView(t, doRequest(t, router, http.MethodPost, "/api/game/reset", ""))

		// Then: only the start remains
		assert.Equal(t, []entity.HistoryEntry{{Index: 0, Label: "Start", Active: true}}, view.History)
	})

	t.Run("Rejects malformed bodies", func(t *testing.T) {
		router := newTestRouter(t)

		for _, tc := range []struct{ path, body string }{
			{"/api/game/moves", `{}`},
			{"/api/game/moves", `{"cell":"a"}`},
			{"/api/game/moves", `not json`},
			{"/api/game/jump", `{"cell":1}`},
		} {
			rec := doRequest(t, router, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tc.path, tc.body)
		}
	})

	t.Run("Out of range cells are ignored", func(t *testing.T) {
		router := newTestRouter(t)

		view := decodeView(t, doRequest(t, router, http.MethodPost, "/api/game/moves", `{"cell":42}`))

		assert.Len(t, view.History, 1)
	})

	t.Run("Storage failures are reported", func(t *testing.T) {
		manager := usecase.NewGameManager(suite.NewLogger(), brokenRepo{}, usecase.Options{})
		router := New(suite.NewLogger(), manager, time.Second, 0).Router()

		rec := doRequest(t, router, http.MethodGet, "/api/game", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPages(t *testing.T) {
	t.Run("Renders the board", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodGet, "/", "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Next player: X")
		assert.Contains(t, body, `action="/cells/8"`)
		assert.Contains(t, body, "Start")
		assert.NotContains(t, body, "confetti-piece")
	})

	t.Run("Form posts redirect back to the board", func(t *testing.T) {
		router := newTestRouter(t)

		for _, path := range []string{"/cells/0", "/cells/0", "/history/0", "/history/9", "/reset"} {
			rec := doRequest(t, router, http.MethodPost, path, "")
			assert.Equal(t, http.StatusSeeOther, rec.Code, path)
			assert.Equal(t, "/", rec.Header().Get("Location"), path)
		}
	})

	t.Run("Shows the winner and the confetti", func(t *testing.T) {
		router := newTestRouter(t)

		for _, cell := range []string{"0", "4", "1", "5", "2"} {
			doRequest(t, router, http.MethodPost, "/cells/"+cell, "")
		}
		rec := doRequest(t, router, http.MethodGet, "/", "")

		body := rec.Body.String()
		assert.Contains(t, body, "Winner: X")
		assert.Contains(t, body, "Move #5")
		assert.Contains(t, body, "square X winner")
		assert.Contains(t, body, "confetti-piece")
		assert.Contains(t, body, `http-equiv="refresh" content="4"`)
	})

	t.Run("Shows a draw with every square disabled", func(t *testing.T) {
		router := newTestRouter(t)

		// When: the board fills without a line
		for _, cell := range []string{"0", "1", "2", "4", "3", "5", "7", "6", "8"} {
			doRequest(t, router, http.MethodPost, "/cells/"+cell, "")
		}
		rec := doRequest(t, router, http.MethodGet, "/", "")

		// Then: the draw is shown and no square can be clicked
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<div class="status">Draw</div>`)
		assert.NotContains(t, body, "Next player")
		assert.NotContains(t, body, "confetti-piece")
		assert.Equal(t, entity.BoardSize, strings.Count(body, `class="square `))
		assert.Equal(t, entity.BoardSize, strings.Count(body, " disabled>"))
	})

	t.Run("Rejects non-numeric path parameters", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/cells/abc", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Serves static assets", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodGet, "/static/game.css", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), ".confetti-piece")
	})
}
