package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-web/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
	"github.com/rocketscienceinc/tictactoe-web/internal/tictactoe"
)

var ErrEmptySessionID = errors.New("session id is empty")

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type Options struct {
	CelebrationDuration time.Duration
	SessionTTL          time.Duration
	CleanupInterval     time.Duration
}

// liveGame is a session's controller plus the lock that serializes its events.
type liveGame struct {
	mu         sync.Mutex
	controller *tictactoe.GameController
	lastSeen   time.Time
	evicted    bool
}

// GameManager keeps one GameController per browser session and persists
// every accepted change.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	opts     Options
	now      func() time.Time

	mu    sync.Mutex
	games map[string]*liveGame
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, opts Options) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		opts:     opts,
		now:      time.Now,
		games:    make(map[string]*liveGame),
	}
}

func (that *GameManager) GetGame(ctx context.Context, sessionID string) (*entity.GameView, error) {
	var view *entity.GameView

	err := that.withGame(ctx, sessionID, func(controller *tictactoe.GameController) (bool, error) {
		view = controller.View()
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// ApplyMove plays cell for the session. A rejected move returns the unchanged
// view together with the rule error.
func (that *GameManager) ApplyMove(ctx context.Context, sessionID string, cell int) (*entity.GameView, error) {
	return that.mutate(ctx, sessionID, func(controller *tictactoe.GameController) error {
		return controller.ApplyMove(cell)
	})
}

func (that *GameManager) JumpTo(ctx context.Context, sessionID string, index int) (*entity.GameView, error) {
	return that.mutate(ctx, sessionID, func(controller *tictactoe.GameController) error {
		return controller.JumpTo(index)
	})
}

func (that *GameManager) Reset(ctx context.Context, sessionID string) (*entity.GameView, error) {
	return that.mutate(ctx, sessionID, func(controller *tictactoe.GameController) error {
		controller.Reset()
		return nil
	})
}

func (that *GameManager) mutate(
	ctx context.Context,
	sessionID string,
	action func(controller *tictactoe.GameController) error,
) (*entity.GameView, error) {
	var (
		view    *entity.GameView
		ruleErr error
	)

	err := that.withGame(ctx, sessionID, func(controller *tictactoe.GameController) (bool, error) {
		ruleErr = action(controller)
		view = controller.View()

		if ruleErr != nil {
			if apperror.IsRuleViolation(ruleErr) {
				return false, nil
			}
			return false, ruleErr
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return view, ruleErr
}

// withGame runs fn under the session's lock and saves the game when fn reports a change.
func (that *GameManager) withGame(
	ctx context.Context,
	sessionID string,
	fn func(controller *tictactoe.GameController) (bool, error),
) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	for {
		game, err := that.getOrLoad(ctx, sessionID)
		if err != nil {
			return err
		}

		game.mu.Lock()
		if game.evicted {
			// lost a race with the janitor, pick up a fresh entry
			game.mu.Unlock()
			continue
		}

		game.lastSeen = that.now()

		snapshot := game.controller.Session(sessionID)

		changed, err := fn(game.controller)
		if err == nil && changed {
			if err = that.save(ctx, sessionID, game.controller); err != nil {
				that.rollback(sessionID, game.controller, snapshot)
			}
		}
		game.mu.Unlock()

		return err
	}
}

func (that *GameManager) getOrLoad(ctx context.Context, sessionID string) (*liveGame, error) {
	that.mu.Lock()
	game, ok := that.games[sessionID]
	that.mu.Unlock()

	if ok {
		return game, nil
	}

	controller, err := that.loadController(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	// another request may have loaded the session meanwhile
	if existing, ok := that.games[sessionID]; ok {
		controller.Close()
		return existing, nil
	}

	game = &liveGame{
		controller: controller,
		lastSeen:   that.now(),
	}
	that.games[sessionID] = game

	return game, nil
}

func (that *GameManager) loadController(ctx context.Context, sessionID string) (*tictactoe.GameController, error) {
	log := that.logger.With("method", "loadController", "sessionID", sessionID)

	controller := tictactoe.NewGameController(that.opts.CelebrationDuration)

	session, err := that.gameRepo.GetByID(ctx, sessionID)
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		log.Debug("starting a new game")
		return controller, nil
	case errors.Is(err, apperror.ErrCorruptedSession):
		log.Warn("stored session is unreadable, starting a new game", "error", err)
		return controller, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err = controller.Load(session); err != nil {
		log.Warn("stored session is invalid, starting a new game", "error", err)
		return controller, nil
	}

	log.Debug("session restored", "moves", controller.HistoryLen()-1)

	return controller, nil
}

func (that *GameManager) save(ctx context.Context, sessionID string, controller *tictactoe.GameController) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, controller.Session(sessionID)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// rollback puts the controller back to the last saved state after a failed save.
func (that *GameManager) rollback(sessionID string, controller *tictactoe.GameController, snapshot *entity.Session) {
	if err := controller.Load(snapshot); err != nil {
		that.logger.Error("failed to roll back session", "method", "rollback", "sessionID", sessionID, "error", err)
	}
}

// Run evicts idle sessions every CleanupInterval until ctx is done.
func (that *GameManager) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(that.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session janitor stopped")
			return
		case <-ticker.C:
			if evicted := that.EvictIdle(ctx); evicted > 0 {
				log.Info("evicted idle sessions", "count", evicted)
			}
		}
	}
}

// EvictIdle closes and deletes sessions not seen for SessionTTL. It returns
// how many were evicted.
func (that *GameManager) EvictIdle(ctx context.Context) int {
	log := that.logger.With("method", "EvictIdle")

	deadline := that.now().Add(-that.opts.SessionTTL)

	that.mu.Lock()
	candidates := make(map[string]*liveGame)
	for id, game := range that.games {
		candidates[id] = game
	}
	that.mu.Unlock()

	var evicted int
	for id, game := range candidates {
		game.mu.Lock()
		if game.evicted || game.lastSeen.After(deadline) {
			game.mu.Unlock()
			continue
		}

		game.evicted = true
		game.controller.Close()

		that.mu.Lock()
		if that.games[id] == game {
			delete(that.games, id)
		}
		that.mu.Unlock()

		err := that.gameRepo.DeleteByID(ctx, id)
		game.mu.Unlock()

		if err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
			log.Error("failed to delete session", "sessionID", id, "error", err)
		}
		evicted++
	}

	return evicted
}

// Sessions returns the number of live sessions.
func (that *GameManager) Sessions() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.games)
}

// Close tears down every live session's timers. Stored sessions are kept.
func (that *GameManager) Close() {
	that.mu.Lock()
	games := that.games
	that.games = make(map[string]*liveGame)
	that.mu.Unlock()

	for _, game := range games {
		game.mu.Lock()
		game.evicted = true
		game.controller.Close()
		game.mu.Unlock()
	}
}
