package internal

import (
	"time"
)

const (
	MinPlayersToStart = 2
	MaxPlayersPerRoom = 12
	MinCategories     = 5
	MaxCategories     = 10
	MinNameLength     = 2
	MaxNameLength     = 20

	ScoreUnique    = 100
	ScoreDuplicate = 50
	ScoreInvalid   = 0
)

type GamePhase string

const (
	PhaseLobby       GamePhase = "lobby"
	PhaseCountdown   GamePhase = "countdown"
	PhasePlaying     GamePhase = "playing"
	PhaseBastaCalled GamePhase = "basta_called"
	PhaseVoting      GamePhase = "voting"
	PhaseResults     GamePhase = "results"
	PhaseReadyCheck  GamePhase = "ready_check"
	PhaseGameOver    GamePhase = "game_over"
)

type VictoryMode string

const (
	VictoryRounds VictoryMode = "rounds"
	VictoryPoints VictoryMode = "points"
)

// SystemPlayerID attributes a basta call to the round timer.
const (
	SystemPlayerID   = "system"
	SystemPlayerName = "Timer"
)

type GameConfig struct {
	VictoryMode        VictoryMode `json:"victory_mode"`
	VictoryValue       int         `json:"victory_value"`
	BastaGraceSeconds  int         `json:"basta_grace_seconds"`
	RoundTimeLimit     int         `json:"round_time_limit"`
	VotingTimeLimit    int         `json:"voting_time_limit"`
	TimeBetweenRounds  int         `json:"time_between_rounds"`
	MaxPlayers         int         `json:"max_players"`
	Categories         []string    `json:"categories"`
	CategoryPreset     string      `json:"category_preset"`
	ShowOthersProgress bool        `json:"show_others_progress"`
}

type PlayerAnswers struct {
	PlayerId    string            `json:"player_id"`
	Answers     map[string]string `json:"answers"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

type Vote struct {
	VoterId string `json:"voter_id"`
	IsValid bool   `json:"is_valid"`
}

// VoteLedger maps category -> target player id -> votes cast on that answer.
type VoteLedger map[string]map[string][]Vote

type AnswerVotingResult struct {
	Category         string `json:"category"`
	PlayerId         string `json:"player_id"`
	Username         string `json:"username"`
	Answer           string `json:"answer"`
	ValidVotes       int    `json:"valid_votes"`
	InvalidVotes     int    `json:"invalid_votes"`
	EligibleVoters   int    `json:"eligible_voters"`
	IsValid          bool   `json:"is_valid"`
	NeedsTieBreaker  bool   `json:"needs_tie_breaker"`
	TieBreakDecision *bool  `json:"tie_break_decision,omitempty"`
}

// VotingResults keeps per-category results in configured category order,
// and within a category in player join order.
type VotingResults struct {
	Categories []string                        `json:"categories"`
	Results    map[string][]AnswerVotingResult `json:"results"`
}

type PlayerRoundScore struct {
	PlayerId       string         `json:"player_id"`
	Username       string         `json:"username"`
	CategoryScores map[string]int `json:"category_scores"`
	RoundTotal     int            `json:"round_total"`
	TotalScore     int            `json:"total_score"`
}

type RoundResults struct {
	Round            int                 `json:"round"`
	Letter           string              `json:"letter"`
	PlayerScores     []PlayerRoundScore  `json:"player_scores"`
	DuplicateAnswers map[string][]string `json:"duplicate_answers"`
	VotingResults    VotingResults       `json:"voting_results"`
}

type GameResultData struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

type FinalResults struct {
	Leaderboard  []GameResultData `json:"leaderboard"`
	Winner       *GameResultData  `json:"winner,omitempty"`
	RoundsPlayed int              `json:"rounds_played"`
	TotalPlayers int              `json:"total_players"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}

type Room struct {
	Id     string
	Config GameConfig

	// Game State
	Phase         GamePhase
	RoundNumber   int
	CurrentLetter string
	UsedLetters   []string
	LetterPool    []string

	// Player Order and Management
	HostId      string
	Players     map[string]*Player
	PlayerOrder []string
	devices     map[string]string

	// Round State
	Answers        map[string]*PlayerAnswers
	Votes          VoteLedger
	Reactions      map[string]map[string]map[string][]string
	VotingReady    map[string]bool
	PendingResults *VotingResults

	// Basta
	BastaInProgress bool
	BastaCalledBy   string
	BastaCalledName string

	// Timestamps
	CreatedAt       time.Time
	RoundStartedAt  time.Time
	BastaCalledAt   time.Time
	VotingStartedAt time.Time
}

type PublicRoomState struct {
	RoomId              string           `json:"room_id"`
	HostId              string           `json:"host_id"`
	Config              GameConfig       `json:"config"`
	Phase               GamePhase        `json:"phase"`
	Players             []PlayerSnapshot `json:"players"`
	CurrentRound        int              `json:"current_round"`
	TotalRounds         int              `json:"total_rounds"`
	CurrentLetter       string           `json:"current_letter,omitempty"`
	UsedLetters         []string         `json:"used_letters"`
	BastaCalledBy       string           `json:"basta_called_by,omitempty"`
	RoundTimeRemaining  *int64           `json:"round_time_remaining_ms,omitempty"`
	VotingTimeRemaining *int64           `json:"voting_time_remaining_ms,omitempty"`
}
