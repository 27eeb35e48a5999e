package internal

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scythe504/basta-backend/internal/utils"
)

func NewRoom(id string, now time.Time) *Room {
	return &Room{
		Id:          id,
		Config:      DefaultConfig(),
		Phase:       PhaseLobby,
		UsedLetters: make([]string, 0),
		Players:     make(map[string]*Player),
		PlayerOrder: make([]string, 0),
		devices:     make(map[string]string),
		Answers:     make(map[string]*PlayerAnswers),
		Votes:       make(VoteLedger),
		Reactions:   make(map[string]map[string]map[string][]string),
		VotingReady: make(map[string]bool),
		CreatedAt:   now,
	}
}

// Reset discards every player and all round state, leaving an empty lobby.
func (r *Room) Reset(now time.Time) {
	*r = *NewRoom(r.Id, now)
}

// ValidatePlayerName trims name and checks its length in characters.
func ValidatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < MinNameLength {
		return "", ErrNameTooShort
	}
	if n > MaxNameLength {
		return "", ErrNameTooLong
	}
	return trimmed, nil
}

// AddPlayer validates and seats a new player. The first player becomes host.
func (r *Room) AddPlayer(id, deviceID, name string, now time.Time) (*Player, error) {
	trimmed, err := ValidatePlayerName(name)
	if err != nil {
		return nil, err
	}
	if r.IsNameTaken(trimmed, "") {
		return nil, ErrDuplicateName
	}
	if len(r.Players) >= r.Config.MaxPlayers {
		return nil, ErrRoomFull
	}

	player := &Player{
		Id:          id,
		DeviceId:    deviceID,
		Username:    trimmed,
		IsConnected: true,
		JoinedAt:    now,
		LastSeen:    now,
	}
	if len(r.Players) == 0 {
		player.IsHost = true
		r.HostId = id
	}

	r.Players[id] = player
	r.PlayerOrder = append(r.PlayerOrder, id)
	if deviceID != "" {
		r.devices[deviceID] = id
	}
	return player, nil
}

// RemovePlayer deletes a player. If the host left, the first connected
// player in join order is promoted, falling back to the first remaining
// player. newHostId is empty when the host did not change.
func (r *Room) RemovePlayer(id string) (removed *Player, newHostId string) {
	player, ok := r.Players[id]
	if !ok {
		return nil, ""
	}

	delete(r.Players, id)
	delete(r.Answers, id)
	delete(r.VotingReady, id)
	r.PlayerOrder = slices.DeleteFunc(r.PlayerOrder, func(s string) bool {
		return s == id
	})
	if r.devices[player.DeviceId] == id {
		delete(r.devices, player.DeviceId)
	}

	if !player.IsHost {
		return player, ""
	}
	player.IsHost = false
	r.HostId = ""
	if len(r.PlayerOrder) == 0 {
		return player, ""
	}

	next := r.Players[r.PlayerOrder[0]]
	for _, p := range r.PlayersInOrder() {
		if p.IsConnected {
			next = p
			break
		}
	}
	next.IsHost = true
	r.HostId = next.Id
	return player, next.Id
}

func (r *Room) DisconnectPlayer(id string, now time.Time) *Player {
	player, ok := r.Players[id]
	if !ok {
		return nil
	}
	player.IsConnected = false
	player.LastSeen = now
	delete(r.VotingReady, id)
	return player
}

func (r *Room) PlayerByDevice(deviceID string) *Player {
	if deviceID == "" {
		return nil
	}
	id, ok := r.devices[deviceID]
	if !ok {
		return nil
	}
	return r.Players[id]
}

// ReconnectPlayer re-keys the player owning deviceID under newID, carrying
// over answers, votes, reactions and the host reference. oldID is the
// player's previous connection id.
func (r *Room) ReconnectPlayer(deviceID, newID string, now time.Time) (player *Player, oldID string, ok bool) {
	player = r.PlayerByDevice(deviceID)
	if player == nil {
		return nil, "", false
	}
	oldID = player.Id

	if oldID != newID {
		r.rekey(oldID, newID)
		player.Id = newID
		r.devices[deviceID] = newID
	}
	player.IsConnected = true
	player.LastSeen = now
	return player, oldID, true
}

func (r *Room) rekey(oldID, newID string) {
	r.Players[newID] = r.Players[oldID]
	delete(r.Players, oldID)

	if i := slices.Index(r.PlayerOrder, oldID); i >= 0 {
		r.PlayerOrder[i] = newID
	}
	if r.HostId == oldID {
		r.HostId = newID
	}
	if r.BastaCalledBy == oldID {
		r.BastaCalledBy = newID
	}
	if answers, ok := r.Answers[oldID]; ok {
		delete(r.Answers, oldID)
		answers.PlayerId = newID
		r.Answers[newID] = answers
	}
	if r.VotingReady[oldID] {
		delete(r.VotingReady, oldID)
		r.VotingReady[newID] = true
	}

	for _, targets := range r.Votes {
		if votes, ok := targets[oldID]; ok {
			delete(targets, oldID)
			targets[newID] = votes
		}
		for _, votes := range targets {
			for i := range votes {
				if votes[i].VoterId == oldID {
					votes[i].VoterId = newID
				}
			}
		}
	}

	for _, targets := range r.Reactions {
		if reactions, ok := targets[oldID]; ok {
			delete(targets, oldID)
			targets[newID] = reactions
		}
		for _, reactions := range targets {
			for kind, reactors := range reactions {
				if i := slices.Index(reactors, oldID); i >= 0 {
					reactions[kind][i] = newID
				}
			}
		}
	}

	if r.PendingResults != nil {
		for _, results := range r.PendingResults.Results {
			for i := range results {
				if results[i].PlayerId == oldID {
					results[i].PlayerId = newID
				}
			}
		}
	}
}

// UpdateConfig applies a partial configuration. Phase and role checks are
// the caller's responsibility.
func (r *Room) UpdateConfig(patch ConfigPatch) error {
	next, err := patch.Apply(r.Config)
	if err != nil {
		return err
	}
	if next.MaxPlayers < len(r.Players) {
		return NewGameError(CodeInvalidMessage, "Max players cannot be below the current player count (%d)", len(r.Players))
	}
	r.Config = next
	return nil
}

func (r *Room) TransferHost(targetID string) error {
	target, ok := r.Players[targetID]
	if !ok || !target.IsConnected {
		return ErrPlayerNotFound
	}
	if current, ok := r.Players[r.HostId]; ok {
		current.IsHost = false
	}
	target.IsHost = true
	r.HostId = targetID
	return nil
}

func (r *Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostId == playerID
}

// IsNameTaken compares names case- and diacritic-insensitively.
func (r *Room) IsNameTaken(name, excludeID string) bool {
	normalized := utils.NormalizeAnswer(name)
	for id, p := range r.Players {
		if id == excludeID {
			continue
		}
		if utils.NormalizeAnswer(p.Username) == normalized {
			return true
		}
	}
	return false
}

func (r *Room) PlayersInOrder() []*Player {
	players := make([]*Player, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		if p, ok := r.Players[id]; ok {
			players = append(players, p)
		}
	}
	return players
}

func (r *Room) ConnectedPlayers() []*Player {
	return slices.DeleteFunc(r.PlayersInOrder(), func(p *Player) bool {
		return !p.IsConnected
	})
}

func (r *Room) GetPlayerCount() int {
	count := 0
	for _, player := range r.Players {
		if player.IsConnected {
			count++
		}
	}
	return count
}

func (r *Room) CanStartGame() bool {
	return r.GetPlayerCount() >= MinPlayersToStart
}

func (r *Room) AreAllPlayersReady() bool {
	connected := 0
	for _, player := range r.Players {
		if !player.IsConnected {
			continue
		}
		connected++
		if !player.IsReady {
			return false
		}
	}
	return connected > 0
}

func (r *Room) AllVotingReady() bool {
	connected := r.ConnectedPlayers()
	if len(connected) == 0 {
		return false
	}
	for _, p := range connected {
		if !r.VotingReady[p.Id] {
			return false
		}
	}
	return true
}

func (r *Room) TotalRounds() int {
	if r.Config.VictoryMode == VictoryRounds {
		return r.Config.VictoryValue
	}
	return 0
}

// InitializeRound starts round state for a freshly drawn letter.
func (r *Room) InitializeRound(letter string, now time.Time) {
	r.CurrentLetter = letter
	r.UsedLetters = append(r.UsedLetters, letter)
	r.RoundNumber++
	r.RoundStartedAt = now
	r.BastaInProgress = false
	r.BastaCalledBy = ""
	r.BastaCalledName = ""
	r.BastaCalledAt = time.Time{}
	r.VotingStartedAt = time.Time{}
	r.Answers = make(map[string]*PlayerAnswers)
	r.Votes = make(VoteLedger)
	r.Reactions = make(map[string]map[string]map[string][]string)
	r.VotingReady = make(map[string]bool)
	r.PendingResults = nil

	for _, player := range r.Players {
		player.ResetRoundState()
	}
}

// SubmitAnswers replaces a player's answers for the round. Answers for
// categories that are not configured are dropped.
func (r *Room) SubmitAnswers(playerID string, answers map[string]string, now time.Time) (int, error) {
	player, ok := r.Players[playerID]
	if !ok {
		return 0, ErrPlayerNotFound
	}

	kept := make(map[string]string, len(r.Config.Categories))
	for _, category := range r.Config.Categories {
		if answer, ok := answers[category]; ok {
			kept[category] = answer
		}
	}
	r.Answers[playerID] = &PlayerAnswers{
		PlayerId:    playerID,
		Answers:     kept,
		SubmittedAt: now,
	}
	player.FilledCount = countFilled(kept)
	return player.FilledCount, nil
}

func (r *Room) UpdateAnswer(playerID, category, answer string, now time.Time) (int, error) {
	player, ok := r.Players[playerID]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	if !slices.Contains(r.Config.Categories, category) {
		return 0, NewGameError(CodeInvalidMessage, "Unknown category %q", category)
	}

	entry, ok := r.Answers[playerID]
	if !ok {
		entry = &PlayerAnswers{PlayerId: playerID, Answers: make(map[string]string)}
		r.Answers[playerID] = entry
	}
	entry.Answers[category] = answer
	entry.SubmittedAt = now
	player.FilledCount = countFilled(entry.Answers)
	return player.FilledCount, nil
}

func (r *Room) AnswerOf(playerID, category string) string {
	if entry, ok := r.Answers[playerID]; ok {
		return entry.Answers[category]
	}
	return ""
}

func countFilled(answers map[string]string) int {
	n := 0
	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}

// PrepareForNewRound clears ready flags and basta state between rounds.
func (r *Room) PrepareForNewRound() {
	for _, player := range r.Players {
		player.ResetRoundState()
	}
	r.BastaInProgress = false
	r.BastaCalledBy = ""
	r.BastaCalledName = ""
	r.BastaCalledAt = time.Time{}
	r.PendingResults = nil
	r.VotingReady = make(map[string]bool)
}

// ReturnToLobby keeps the players and config but wipes scores and letters.
// The phase itself is left to the caller.
func (r *Room) ReturnToLobby() {
	r.RoundNumber = 0
	r.CurrentLetter = ""
	r.UsedLetters = make([]string, 0)
	r.LetterPool = nil
	r.Answers = make(map[string]*PlayerAnswers)
	r.Votes = make(VoteLedger)
	r.Reactions = make(map[string]map[string]map[string][]string)
	r.RoundStartedAt = time.Time{}
	r.VotingStartedAt = time.Time{}
	r.PrepareForNewRound()
	for _, player := range r.Players {
		player.Score = 0
	}
}

// ToggleReaction adds or removes reactorID under (category, target, kind)
// and returns the target's current reactions for that category.
func (r *Room) ToggleReaction(reactorID, category, targetID, kind string) map[string][]string {
	targets, ok := r.Reactions[category]
	if !ok {
		targets = make(map[string]map[string][]string)
		r.Reactions[category] = targets
	}
	reactions, ok := targets[targetID]
	if !ok {
		reactions = make(map[string][]string)
		targets[targetID] = reactions
	}

	if i := slices.Index(reactions[kind], reactorID); i >= 0 {
		reactions[kind] = slices.Delete(reactions[kind], i, i+1)
		if len(reactions[kind]) == 0 {
			delete(reactions, kind)
		}
	} else {
		reactions[kind] = append(reactions[kind], reactorID)
	}

	out := make(map[string][]string, len(reactions))
	for k, v := range reactions {
		out[k] = slices.Clone(v)
	}
	return out
}

// PublicState is the client-safe projection of the room.
func (r *Room) PublicState(now time.Time) PublicRoomState {
	players := make([]PlayerSnapshot, 0, len(r.PlayerOrder))
	for _, p := range r.PlayersInOrder() {
		players = append(players, p.ToPublicPlayer())
	}

	state := PublicRoomState{
		RoomId:        r.Id,
		HostId:        r.HostId,
		Config:        r.Config,
		Phase:         r.Phase,
		Players:       players,
		CurrentRound:  r.RoundNumber,
		TotalRounds:   r.TotalRounds(),
		CurrentLetter: r.CurrentLetter,
		UsedLetters:   slices.Clone(r.UsedLetters),
		BastaCalledBy: r.BastaCalledBy,
	}
	state.Config.Categories = slices.Clone(r.Config.Categories)

	if r.Phase == PhasePlaying && r.Config.RoundTimeLimit > 0 && !r.RoundStartedAt.IsZero() {
		state.RoundTimeRemaining = remainingMs(r.RoundStartedAt, r.Config.RoundTimeLimit, now)
	}
	if r.Phase == PhaseVoting && !r.VotingStartedAt.IsZero() {
		state.VotingTimeRemaining = remainingMs(r.VotingStartedAt, r.Config.VotingTimeLimit, now)
	}
	return state
}

func remainingMs(start time.Time, seconds int, now time.Time) *int64 {
	left := max(start.Add(time.Duration(seconds)*time.Second).Sub(now), 0)
	ms := left.Milliseconds()
	return &ms
}
