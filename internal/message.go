package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Outbound message types.
const (
	MsgRoomState         = "room_state"
	MsgPlayerJoined      = "player_joined"
	MsgPlayerLeft        = "player_left"
	MsgPlayerReconnected = "player_reconnected"
	MsgPlayerReady       = "player_ready"
	MsgPlayerKicked      = "player_kicked"
	MsgHostChanged       = "host_changed"
	MsgCountdownStarted  = "countdown_started"
	MsgRoundStarted      = "round_started"
	MsgBastaCalled       = "basta_called"
	MsgRoundEnded        = "round_ended"
	MsgVotingStarted     = "voting_started"
	MsgVoteReceived      = "vote_received"
	MsgPlayerVotingReady = "player_voting_ready"
	MsgVotingEnded       = "voting_ended"
	MsgRoundResults      = "round_results"
	MsgReadyCheckStarted = "ready_check_started"
	MsgGameOver          = "game_over"
	MsgPlayerProgress    = "player_progress"
	MsgConfigUpdated     = "config_updated"
	MsgReactionReceived  = "reaction_received"
	MsgError             = "error"
	MsgPong              = "pong"
)

type RoomStateData struct {
	State PublicRoomState `json:"state"`
}

type PlayerJoinedData struct {
	Player      PlayerSnapshot `json:"player"`
	PlayerCount int            `json:"player_count"`
}

type PlayerLeftData struct {
	PlayerID    string `json:"player_id"`
	Username    string `json:"username"`
	PlayerCount int    `json:"player_count"`
}

type PlayerReconnectedData struct {
	PlayerID   string `json:"player_id"`
	PreviousID string `json:"previous_id"`
	Username   string `json:"username"`
}

type PlayerReadyData struct {
	PlayerID string `json:"player_id"`
	IsReady  bool   `json:"is_ready"`
}

type PlayerKickedData struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

type HostChangedData struct {
	NewHostID   string `json:"new_host_id"`
	NewHostName string `json:"new_host_name"`
}

type CountdownStartedData struct {
	DurationMs int64 `json:"duration_ms"`
}

type RoundStartedData struct {
	Round       int    `json:"round"`
	Letter      string `json:"letter"`
	TotalRounds int    `json:"total_rounds"`
}

type BastaCalledData struct {
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	GraceSeconds int    `json:"grace_seconds"`
}

type RoundEndedData struct {
	Round int `json:"round"`
}

type VotingAnswers struct {
	Username string            `json:"username"`
	Answers  map[string]string `json:"answers"`
}

type VotingStartedData struct {
	Answers   map[string]VotingAnswers `json:"answers"`
	TimeLimit int                      `json:"time_limit"`
}

type VoteReceivedData struct {
	Category       string `json:"category"`
	TargetPlayerID string `json:"target_player_id"`
	VotesCount     int    `json:"votes_count"`
	TotalVoters    int    `json:"total_voters"`
}

type PlayerVotingReadyData struct {
	PlayerID     string `json:"player_id"`
	ReadyCount   int    `json:"ready_count"`
	TotalPlayers int    `json:"total_players"`
}

type VotingEndedData struct {
	Results VotingResults `json:"results"`
}

type RoundResultsData struct {
	Results RoundResults `json:"results"`
}

type ReadyCheckStartedData struct {
	TimeLimit int `json:"time_limit"`
}

type GameOverData struct {
	Results FinalResults `json:"results"`
}

type PlayerProgressData struct {
	PlayerID    string `json:"player_id"`
	FilledCount int    `json:"filled_count"`
}

type ConfigUpdatedData struct {
	Config GameConfig `json:"config"`
}

type ReactionReceivedData struct {
	Category       string              `json:"category"`
	TargetPlayerID string              `json:"target_player_id"`
	Reactions      map[string][]string `json:"reactions"`
}

type ErrorData struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

// ClientAction is one inbound message from a connection. The set of
// implementations is closed; see ParseClientAction.
type ClientAction interface {
	ActionType() string
}

type JoinAction struct {
	PlayerName string `json:"player_name"`
	DeviceId   string `json:"device_id"`
}

type ReadyAction struct {
	Ready bool `json:"-"`
}

type StartGameAction struct{}

type SubmitAnswersAction struct {
	Answers map[string]string `json:"answers"`
}

type UpdateAnswerAction struct {
	Category string `json:"category"`
	Answer   string `json:"answer"`
}

type CallBastaAction struct{}

type VoteAction struct {
	Category       string `json:"category"`
	TargetPlayerId string `json:"target_player_id"`
	Valid          *bool  `json:"valid"`
}

type VotingReadyAction struct{}

type HostDecideTieAction struct {
	Category       string `json:"category"`
	TargetPlayerId string `json:"target_player_id"`
	Valid          *bool  `json:"valid"`
}

type KickPlayerAction struct {
	TargetPlayerId string `json:"target_player_id"`
}

type UpdateConfigAction struct {
	Config ConfigPatch `json:"config"`
}

type TransferHostAction struct {
	TargetPlayerId string `json:"target_player_id"`
}

type ReactAction struct {
	Category       string `json:"category"`
	TargetPlayerId string `json:"target_player_id"`
	Reaction       string `json:"reaction"`
}

type PingAction struct{}

func (JoinAction) ActionType() string { return "join" }
func (a ReadyAction) ActionType() string {
	if a.Ready {
		return "ready"
	}
	return "not_ready"
}
func (StartGameAction) ActionType() string     { return "start_game" }
func (SubmitAnswersAction) ActionType() string { return "submit_answers" }
func (UpdateAnswerAction) ActionType() string  { return "update_answer" }
func (CallBastaAction) ActionType() string     { return "call_basta" }
func (VoteAction) ActionType() string          { return "vote" }
func (VotingReadyAction) ActionType() string   { return "voting_ready" }
func (HostDecideTieAction) ActionType() string { return "host_decide_tie" }
func (KickPlayerAction) ActionType() string    { return "kick_player" }
func (UpdateConfigAction) ActionType() string  { return "update_config" }
func (TransferHostAction) ActionType() string  { return "transfer_host" }
func (ReactAction) ActionType() string         { return "react" }
func (PingAction) ActionType() string          { return "ping" }

// ParseClientAction decodes a raw frame. Any failure wraps ErrInvalidMessage.
func ParseClientAction(raw []byte) (ClientAction, error) {
	var baseMsg Message[json.RawMessage]
	if err := json.Unmarshal(raw, &baseMsg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	switch baseMsg.Type {
	case "join":
		var a JoinAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case "ready":
		return ReadyAction{Ready: true}, nil
	case "not_ready":
		return ReadyAction{Ready: false}, nil
	case "start_game":
		return StartGameAction{}, nil
	case "submit_answers":
		var a SubmitAnswersAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.Answers == nil {
			return nil, fmt.Errorf("%w: submit_answers without answers", ErrInvalidMessage)
		}
		return a, nil
	case "update_answer":
		var a UpdateAnswerAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.Category == "" {
			return nil, fmt.Errorf("%w: update_answer without category", ErrInvalidMessage)
		}
		return a, nil
	case "call_basta":
		return CallBastaAction{}, nil
	case "vote":
		var a VoteAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.Category == "" || a.TargetPlayerId == "" || a.Valid == nil {
			return nil, fmt.Errorf("%w: vote needs category, target_player_id and valid", ErrInvalidMessage)
		}
		return a, nil
	case "voting_ready":
		return VotingReadyAction{}, nil
	case "host_decide_tie":
		var a HostDecideTieAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.Category == "" || a.TargetPlayerId == "" || a.Valid == nil {
			return nil, fmt.Errorf("%w: host_decide_tie needs category, target_player_id and valid", ErrInvalidMessage)
		}
		return a, nil
	case "kick_player":
		var a KickPlayerAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.TargetPlayerId == "" {
			return nil, fmt.Errorf("%w: kick_player without target_player_id", ErrInvalidMessage)
		}
		return a, nil
	case "update_config":
		var a UpdateConfigAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case "transfer_host":
		var a TransferHostAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.TargetPlayerId == "" {
			return nil, fmt.Errorf("%w: transfer_host without target_player_id", ErrInvalidMessage)
		}
		return a, nil
	case "react":
		var a ReactAction
		if err := decodeData(baseMsg.Data, &a); err != nil {
			return nil, err
		}
		if a.Category == "" || a.TargetPlayerId == "" || a.Reaction == "" {
			return nil, fmt.Errorf("%w: react needs category, target_player_id and reaction", ErrInvalidMessage)
		}
		return a, nil
	case "ping":
		return PingAction{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidMessage, baseMsg.Type)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidMessage)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}
