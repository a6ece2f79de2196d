package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/chase-arena/internal/game"
)

// CreateSessionRequest - тело POST /api/sessions. Пустое тело означает normal.
type CreateSessionRequest struct {
	Mode string `json:"mode"`
}

// CreateSessionResponse возвращает id и токен управления сессией
type CreateSessionResponse struct {
	SessionID string        `json:"session_id"`
	Token     string        `json:"token"`
	Mode      game.Mode     `json:"mode"`
	Snapshot  game.Snapshot `json:"snapshot"`
}

// KeyRequest - переход одной клавиши
type KeyRequest struct {
	Key  string `json:"key" binding:"required"`
	Down *bool  `json:"down" binding:"required"`
}

func (rs *RestServer) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s, err := rs.manager.Create(c.Request.Context(), mode)
	if errors.Is(err, game.ErrTooManySessions) {
		fail(c, http.StatusServiceUnavailable, "Слишком много активных сессий")
		return
	}
	if err != nil {
		rs.log.Error("Не удалось создать сессию: %v", err)
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	token, err := rs.tokens.Issue(s.ID(), string(mode))
	if err != nil {
		rs.log.Error("Не удалось выдать токен сессии %s: %v", s.ID(), err)
		_ = rs.manager.Remove(c.Request.Context(), s.ID())
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	ok(c, http.StatusCreated, "Сессия создана", CreateSessionResponse{
		SessionID: s.ID(),
		Token:     token,
		Mode:      mode,
		Snapshot:  s.Snapshot(),
	})
}

// session находит сессию из пути или отвечает 404
func (rs *RestServer) session(c *gin.Context) (*game.Session, bool) {
	s, err := rs.manager.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Сессия не найдена")
		return nil, false
	}
	return s, true
}

func (rs *RestServer) handleGetSession(c *gin.Context) {
	s, found := rs.session(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, "Снимок сессии", s.Snapshot())
}

func (rs *RestServer) handleDeleteSession(c *gin.Context) {
	if err := rs.manager.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, http.StatusNotFound, "Сессия не найдена")
		return
	}
	ok(c, http.StatusOK, "Сессия удалена", nil)
}

func (rs *RestServer) handleKey(c *gin.Context) {
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Ожидается {key, down}")
		return
	}
	s, found := rs.session(c)
	if !found {
		return
	}
	// Неизвестные клавиши игнорируются, это не ошибка
	accepted := s.KeyEvent(req.Key, *req.Down)
	ok(c, http.StatusOK, "Ввод принят", gin.H{"accepted": accepted})
}

func (rs *RestServer) handleStart(c *gin.Context) {
	s, err := rs.manager.Start(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Сессия не найдена")
		return
	}
	ok(c, http.StatusOK, "Игра начата", s.Snapshot())
}

func (rs *RestServer) handleRestart(c *gin.Context) {
	s, err := rs.manager.Restart(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Сессия не найдена")
		return
	}
	ok(c, http.StatusOK, "Сессия перезапущена", s.Snapshot())
}
