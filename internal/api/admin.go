package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/chase-arena/internal/game"
	"github.com/annel0/chase-arena/internal/replay"
	"github.com/annel0/chase-arena/internal/storage"
)

const defaultResultsLimit = 20

// ResultView - сохранённый результат с разжатой записью ввода
type ResultView struct {
	storage.SessionResult
	Recording *replay.Recording `json:"recording,omitempty"`
}

func (rs *RestServer) handleListSessions(c *gin.Context) {
	sessions := rs.manager.List()
	snaps := make([]game.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snaps = append(snaps, s.Snapshot())
	}
	ok(c, http.StatusOK, "Активные сессии", snaps)
}

func (rs *RestServer) handleListResults(c *gin.Context) {
	store := rs.manager.Results()
	if store == nil {
		fail(c, http.StatusServiceUnavailable, "Хранилище результатов не настроено")
		return
	}

	limit := defaultResultsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit должен быть положительным числом")
			return
		}
		limit = n
	}

	results, err := store.ListResults(c.Request.Context(), limit)
	if err != nil {
		rs.log.Error("Не удалось прочитать результаты: %v", err)
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	ok(c, http.StatusOK, "Результаты сессий", results)
}

func (rs *RestServer) handleGetResult(c *gin.Context) {
	store := rs.manager.Results()
	if store == nil {
		fail(c, http.StatusServiceUnavailable, "Хранилище результатов не настроено")
		return
	}

	res, err := store.LoadResult(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "Результат не найден")
		return
	}
	if err != nil {
		rs.log.Error("Не удалось прочитать результат %s: %v", c.Param("id"), err)
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	view := ResultView{SessionResult: *res}
	if len(res.Replay) > 0 {
		rec, err := rs.manager.Codec().Decode(res.Replay)
		if err != nil {
			rs.log.Warn("Запись сессии %s повреждена: %v", res.SessionID, err)
		} else {
			view.Recording = &rec
		}
	}
	view.Replay = nil
	ok(c, http.StatusOK, "Результат сессии", view)
}
