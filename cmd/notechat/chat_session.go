// This file contains chat session hydration and persistence: restoring
// the previous conversation from the history store and saving each fully
// resolved turn back to it.
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/chat"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/config"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/history"
)

// initChat wires the engine, hydrates prior history, and returns the TUI
// model plus a cleanup function for deferred teardown.
func initChat(cfg config.Config, logger *zap.Logger) (*chatModel, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := context.Background()
	session, router, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := history.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		return nil, nil, err
	}

	restored := hydrateSession(session, store, cfg.History.Retained, logger)

	model := newChatModel(cfg, session, router, store, logger)
	if restored > 0 {
		model.notice = fmt.Sprintf("Restored %d messages from the previous session.", restored)
	}

	cleanup := func() {
		model.persistSessionState()
		if err := store.Close(); err != nil {
			logger.Warn("closing history store", zap.Error(err))
		}
	}
	return model, cleanup, nil
}

// hydrateSession loads the most recent stored session into the live one.
// It returns how many messages were restored. Failures degrade to an
// empty session; chat must stay usable without its history.
func hydrateSession(session *chat.Session, store *history.Store, retained int, logger *zap.Logger) int {
	prev, err := store.LatestSession()
	if err != nil {
		logger.Warn("loading previous session", zap.Error(err))
		return 0
	}
	if prev == nil {
		return 0
	}

	msgs, err := store.RecentMessages(prev.SessionID, retained)
	if err != nil {
		logger.Warn("loading previous history", zap.Error(err))
		return 0
	}

	session.ID = prev.SessionID
	session.SetHistory(msgs)
	return len(msgs)
}

// persistTurn writes any history the in-memory session has gained since
// the last persist, then refreshes the session row and trims storage to
// the retained window.
func (m *chatModel) persistTurn() {
	hist := m.session.History()
	for ; m.persisted < len(hist); m.persisted++ {
		if err := m.store.AppendMessage(m.session.ID, hist[m.persisted]); err != nil {
			m.logger.Warn("persisting message", zap.Error(err))
			return
		}
	}
	m.persistSessionState()
	if err := m.store.TrimRetained(m.session.ID, m.cfg.History.Retained); err != nil {
		m.logger.Warn("trimming history", zap.Error(err))
	}
}

func (m *chatModel) persistSessionState() {
	state := history.SessionState{
		SessionID:    m.session.ID,
		StartedAt:    m.startedAt,
		LastActiveAt: time.Now(),
		TurnCount:    m.session.TurnCount(),
	}
	if err := m.store.SaveSession(state); err != nil {
		m.logger.Warn("persisting session state", zap.Error(err))
	}
}

// clearChat resets both the live session and its stored history.
func (m *chatModel) clearChat() {
	if err := m.store.DeleteSession(m.session.ID); err != nil {
		m.logger.Warn("deleting stored session", zap.Error(err))
	}
	m.session.Reset()
	m.persisted = 0
	m.selectedOption = 0
	m.notice = "Chat cleared."
}
