package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/quizattack/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the sqlite database at dbPath and applies migrations
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection; it also keeps :memory: dbs alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			code TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL DEFAULT '',
			game_mode TEXT NOT NULL DEFAULT 'classic',
			settings TEXT NOT NULL,
			host_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'lobby',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS room_players (
			id TEXT PRIMARY KEY,
			room_code TEXT NOT NULL,
			nickname TEXT NOT NULL,
			avatar TEXT,
			is_host BOOLEAN DEFAULT 0,
			is_ready BOOLEAN DEFAULT 0,
			join_order INTEGER NOT NULL,
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_packs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pack_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			image_url TEXT,
			options TEXT NOT NULL,
			correct_answer INTEGER NOT NULL,
			explanation TEXT,
			FOREIGN KEY (pack_id) REFERENCES quiz_packs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS config_blobs (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_room_players_nickname ON room_players(room_code, nickname COLLATE NOCASE)`,
		`CREATE INDEX IF NOT EXISTS idx_room_players_room ON room_players(room_code)`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_questions_pack ON quiz_questions(pack_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Settings ====================

// GetSetting returns a setting value or ErrNotFound
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting inserts or replaces a setting
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// ==================== Rooms ====================

// CreateRoom inserts a room together with its host player
func (r *Repository) CreateRoom(ctx context.Context, room models.Room, host models.Player) error {
	settings, err := json.Marshal(room.Settings)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (code, password_hash, game_mode, settings, host_id, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, room.Code, room.PasswordHash, room.GameMode, string(settings), room.HostID, room.Status); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO room_players (id, room_code, nickname, avatar, is_host, is_ready, join_order)
		VALUES (?, ?, ?, ?, 1, ?, 0)
	`, host.ID, room.Code, host.Nickname, host.Avatar, host.IsReady); err != nil {
		return err
	}

	return tx.Commit()
}

// RoomExists reports whether a room code is taken
func (r *Repository) RoomExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE code = ?`, code).Scan(&count)
	return count > 0, err
}

// GetRoom returns a room without its players
func (r *Repository) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	var settings string
	var createdAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT code, password_hash, game_mode, settings, host_id, status, created_at
		FROM rooms WHERE code = ?
	`, code).Scan(&room.Code, &room.PasswordHash, &room.GameMode, &settings, &room.HostID, &room.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(settings), &room.Settings); err != nil {
		return nil, err
	}
	room.HasPassword = room.PasswordHash != ""
	if createdAt.Valid {
		room.CreatedAt = createdAt.Time
	}
	return &room, nil
}

// UpdateRoomSettings replaces the lobby settings and game mode
func (r *Repository) UpdateRoomSettings(ctx context.Context, code, gameMode string, settings models.GameSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET game_mode = ?, settings = ? WHERE code = ?`, gameMode, string(data), code)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetRoomStatus updates the room status
func (r *Repository) SetRoomStatus(ctx context.Context, code, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE code = ?`, status, code)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteRoom removes a room and, by cascade, its players
func (r *Repository) DeleteRoom(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteRoomsBefore removes lobby rooms created before the cutoff and returns
// how many went. Rooms with a game in progress are left alone.
func (r *Repository) DeleteRoomsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE created_at < ? AND status = ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"), models.RoomStatusLobby)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Players ====================

// AddPlayer appends a player to a room and returns its join order
func (r *Repository) AddPlayer(ctx context.Context, code string, p models.Player) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(join_order), -1) + 1 FROM room_players WHERE room_code = ?`, code,
	).Scan(&next); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO room_players (id, room_code, nickname, avatar, is_host, is_ready, join_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, code, p.Nickname, p.Avatar, p.IsHost, p.IsReady, next); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicate
		}
		return 0, err
	}

	return next, tx.Commit()
}

// ListPlayers returns a room's players in join order
func (r *Repository) ListPlayers(ctx context.Context, code string) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, nickname, COALESCE(avatar, ''), is_host, is_ready, join_order
		FROM room_players WHERE room_code = ?
		ORDER BY join_order
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Nickname, &p.Avatar, &p.IsHost, &p.IsReady, &p.JoinOrder); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// NicknameTaken reports whether nickname is in use in the room, ignoring case
func (r *Repository) NicknameTaken(ctx context.Context, code, nickname string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM room_players WHERE room_code = ? AND nickname = ? COLLATE NOCASE`,
		code, nickname,
	).Scan(&count)
	return count > 0, err
}

// CountPlayers returns the number of players in a room
func (r *Repository) CountPlayers(ctx context.Context, code string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_players WHERE room_code = ?`, code).Scan(&count)
	return count, err
}

// SetPlayerReady updates a player's ready flag
func (r *Repository) SetPlayerReady(ctx context.Context, code, playerID string, ready bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE room_players SET is_ready = ? WHERE room_code = ? AND id = ?`, ready, code, playerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RemovePlayer deletes a player from a room
func (r *Repository) RemovePlayer(ctx context.Context, code, playerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM room_players WHERE room_code = ? AND id = ?`, code, playerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ==================== Quiz packs ====================

// ListPacks returns every pack with its question count
func (r *Repository) ListPacks(ctx context.Context) ([]models.QuizPack, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.description, ''), COUNT(q.id)
		FROM quiz_packs p
		LEFT JOIN quiz_questions q ON q.pack_id = p.id
		GROUP BY p.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []models.QuizPack
	for rows.Next() {
		var p models.QuizPack
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.QuestionCount); err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// GetPack returns a pack with its questions
func (r *Repository) GetPack(ctx context.Context, id int) (*models.QuizPack, error) {
	var p models.QuizPack
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(description, '') FROM quiz_packs WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	questions, err := r.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Questions = questions
	p.QuestionCount = len(questions)
	return &p, nil
}

// CreatePack inserts a pack and returns its id
func (r *Repository) CreatePack(ctx context.Context, name, description string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO quiz_packs (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdatePack renames a pack
func (r *Repository) UpdatePack(ctx context.Context, id int, name, description string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE quiz_packs SET name = ?, description = ? WHERE id = ?`, name, description, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeletePack removes a pack and its questions
func (r *Repository) DeletePack(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quiz_packs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CountPacks returns the number of packs
func (r *Repository) CountPacks(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_packs`).Scan(&count)
	return count, err
}

// ListQuestions returns a pack's questions in insertion order
func (r *Repository) ListQuestions(ctx context.Context, packID int) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, COALESCE(image_url, ''), options, correct_answer, COALESCE(explanation, '')
		FROM quiz_questions WHERE pack_id = ?
		ORDER BY id
	`, packID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var options string
		if err := rows.Scan(&q.ID, &q.Text, &q.ImageURL, &options, &q.CorrectAnswer, &q.Explanation); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateQuestion adds a question to a pack
func (r *Repository) CreateQuestion(ctx context.Context, packID int, q models.Question) (int64, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO quiz_questions (pack_id, text, image_url, options, correct_answer, explanation)
		VALUES (?, ?, ?, ?, ?, ?)
	`, packID, q.Text, q.ImageURL, string(options), q.CorrectAnswer, q.Explanation)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateQuestion replaces a question's content
func (r *Repository) UpdateQuestion(ctx context.Context, packID, id int, q models.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE quiz_questions
		SET text = ?, image_url = ?, options = ?, correct_answer = ?, explanation = ?
		WHERE id = ? AND pack_id = ?
	`, q.Text, q.ImageURL, string(options), q.CorrectAnswer, q.Explanation, id, packID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteQuestion removes a question from a pack
func (r *Repository) DeleteQuestion(ctx context.Context, packID, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quiz_questions WHERE id = ? AND pack_id = ?`, id, packID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ==================== Config blobs ====================

// GetBlob returns the stored bytes for key or ErrNotFound
func (r *Repository) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config_blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return value, err
}

// PutBlob inserts or replaces the bytes stored under key
func (r *Repository) PutBlob(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config_blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

// DeleteBlob removes key. Deleting a missing key is not an error.
func (r *Repository) DeleteBlob(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM config_blobs WHERE key = ?`, key)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
