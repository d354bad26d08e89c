package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-web/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
)

type memoryGame struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewMemoryGameRepository keeps sessions in process memory. Sessions are lost on restart.
func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		sessions: make(map[string]*entity.Session),
	}
}

func (that *memoryGame) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[session.ID] = cloneSession(session)

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	return cloneSession(session), nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; !ok {
		return apperror.ErrSessionNotFound
	}

	delete(that.sessions, id)

	return nil
}

func cloneSession(session *entity.Session) *entity.Session {
	history := make([]entity.Board, len(session.History))
	copy(history, session.History)

	return &entity.Session{
		ID:           session.ID,
		History:      history,
		CurrentIndex: session.CurrentIndex,
	}
}
