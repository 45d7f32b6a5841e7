package models

import "time"

// EffectKind identifies what part of the game a power card targets
type EffectKind string

const (
	EffectTime   EffectKind = "time"
	EffectCSS    EffectKind = "css"
	EffectScore  EffectKind = "score"
	EffectAnswer EffectKind = "answer"
)

// CardEffect is the payload a card carries. Only the fields relevant to Kind are set.
type CardEffect struct {
	Kind       EffectKind `json:"kind"`
	Target     string     `json:"target"` // "self" or "opponents"
	Seconds    int        `json:"seconds,omitempty"`
	Multiplier int        `json:"multiplier,omitempty"`
	Points     int        `json:"points,omitempty"`
	Remove     int        `json:"remove,omitempty"`
	CSSClass   string     `json:"css_class,omitempty"`
	DurationMs int        `json:"duration_ms,omitempty"`
}

// Card is a power card. Catalog entries leave UniqueID empty; cards in a hand carry one.
type Card struct {
	ID          string     `json:"id"`
	UniqueID    string     `json:"unique_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Value       int        `json:"value"`
	Emoji       string     `json:"emoji"`
	Type        string     `json:"type"`
	Effect      CardEffect `json:"effect"`
}

// Player is a participant in a room or a running game
type Player struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Avatar         string `json:"avatar,omitempty"`
	IsHost         bool   `json:"is_host"`
	IsReady        bool   `json:"is_ready"`
	Score          int    `json:"score"`
	Cards          int    `json:"cards"`
	HasAnswered    bool   `json:"has_answered"`
	SelectedAnswer *int   `json:"selected_answer"`
	JoinOrder      int    `json:"join_order"`
}

// Question is a single multiple-choice question
type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"text"`
	ImageURL      string   `json:"image_url,omitempty"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// GameSettings holds the lobby-configured rules for a game
type GameSettings struct {
	TimePerQuestion   int      `json:"timePerQuestion"`
	NumberOfQuestion  int      `json:"numberOfQuestion"`
	AllowedCards      []string `json:"allowedCards"`
	ShowCorrectAnswer bool     `json:"showCorrectAnswer"`
	MaxPlayers        int      `json:"maxPlayers"`
	SelectedQuizPack  string   `json:"selectedQuizPack"`
}

// ConfigPlayer is the player shape stored in a GameConfig blob
type ConfigPlayer struct {
	ID       string `json:"id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	IsHost   bool   `json:"isHost,omitempty"`
	IsReady  bool   `json:"isReady,omitempty"`
}

// ConfigQuestion is the question shape stored in a GameConfig blob
type ConfigQuestion struct {
	Question      string   `json:"question"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// GameConfig is written by the lobby when a game starts and read once by the play loop
type GameConfig struct {
	RoomCode         string           `json:"roomCode"`
	SelectedGameMode string           `json:"selectedGameMode"`
	GameSettings     *GameSettings    `json:"gameSettings"`
	Players          []ConfigPlayer   `json:"players"`
	Questions        []ConfigQuestion `json:"questions"`
}

// CardUsage is one entry of the append-only card log
type CardUsage struct {
	PlayerName      string `json:"player_name"`
	CardTitle       string `json:"card_title"`
	Round           int    `json:"round"`
	QuestionNumber  int    `json:"question_number"`
	CardDescription string `json:"card_description"`
}

// ScoreUpdate drives a one-shot score animation
type ScoreUpdate struct {
	PlayerID    string `json:"player_id"`
	Points      int    `json:"points"`
	AnimationID string `json:"animation_id"`
}

// Room status values
const (
	RoomStatusLobby   = "lobby"
	RoomStatusPlaying = "playing"
)

// Room is a lobby that players join by code
type Room struct {
	Code         string       `json:"code"`
	PasswordHash string       `json:"-"`
	HasPassword  bool         `json:"has_password"`
	GameMode     string       `json:"game_mode"`
	Settings     GameSettings `json:"settings"`
	HostID       string       `json:"host_id"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	Players      []Player     `json:"players"`
}

// QuizPack groups questions for play
type QuizPack struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	QuestionCount int        `json:"question_count"`
	Questions     []Question `json:"questions,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
