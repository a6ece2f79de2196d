package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaPositionRepo реализует PositionRepo для базы данных MariaDB/MySQL.
// Использует таблицу agent_positions.
type MariaPositionRepo struct {
	db *sql.DB
}

// NewMariaPositionRepo создает новый репозиторий позиций для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaPositionRepo(ctx context.Context, dsn string) (*MariaPositionRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaPositionRepo{db: db}

	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// createTable создает таблицу agent_positions, если она не существует.
func (r *MariaPositionRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS agent_positions (
			session_id CHAR(36)    NOT NULL,
			kind       VARCHAR(16) NOT NULL,
			x          DOUBLE      NOT NULL,
			y          DOUBLE      NOT NULL,
			z          DOUBLE      NOT NULL,
			yaw        DOUBLE      NOT NULL DEFAULT 0,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, kind),
			INDEX idx_updated_at (updated_at)
		) ENGINE=InnoDB
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы agent_positions: %w", err)
	}
	return nil
}

const upsertPosition = `
	INSERT INTO agent_positions (session_id, kind, x, y, z, yaw)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		x = VALUES(x),
		y = VALUES(y),
		z = VALUES(z),
		yaw = VALUES(yaw),
		updated_at = CURRENT_TIMESTAMP
`

// Save сохраняет позицию.
// Использует INSERT ... ON DUPLICATE KEY UPDATE для обновления существующих записей.
func (r *MariaPositionRepo) Save(ctx context.Context, pos AgentPosition) error {
	if err := pos.validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, upsertPosition,
		pos.SessionID, pos.Kind, pos.Position.X, pos.Position.Y, pos.Position.Z, pos.Yaw)
	if err != nil {
		return fmt.Errorf("ошибка сохранения позиции %s/%s: %w", pos.SessionID, pos.Kind, err)
	}
	return nil
}

// Load загружает позицию из базы данных.
func (r *MariaPositionRepo) Load(ctx context.Context, sessionID, kind string) (AgentPosition, bool, error) {
	query := `SELECT x, y, z, yaw, updated_at FROM agent_positions WHERE session_id = ? AND kind = ?`

	pos := AgentPosition{SessionID: sessionID, Kind: kind}
	err := r.db.QueryRowContext(ctx, query, sessionID, kind).
		Scan(&pos.Position.X, &pos.Position.Y, &pos.Position.Z, &pos.Yaw, &pos.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return AgentPosition{}, false, nil
	}
	if err != nil {
		return AgentPosition{}, false, fmt.Errorf("ошибка загрузки позиции %s/%s: %w", sessionID, kind, err)
	}
	return pos, true, nil
}

// Delete удаляет позиции сессии.
func (r *MariaPositionRepo) Delete(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM agent_positions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("ошибка удаления позиций сессии %s: %w", sessionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("позиции сессии %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// BatchSave сохраняет позиции в одной транзакции.
func (r *MariaPositionRepo) BatchSave(ctx context.Context, positions []AgentPosition) error {
	if len(positions) == 0 {
		return nil // Нечего сохранять
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback() // Откат в случае ошибки

	stmt, err := tx.PrepareContext(ctx, upsertPosition)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for _, pos := range positions {
		if err := pos.validate(); err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, pos.SessionID, pos.Kind,
			pos.Position.X, pos.Position.Y, pos.Position.Z, pos.Yaw)
		if err != nil {
			return fmt.Errorf("ошибка сохранения позиции %s/%s в batch: %w", pos.SessionID, pos.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных.
func (r *MariaPositionRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
