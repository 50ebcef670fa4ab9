package game

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// legalStatuses maps each event kind to the statuses in which it may be
// submitted. Events missing from the table are legal everywhere.
var legalStatuses = map[string][]RoomStatus{
	EventPlayerReady:   {STATUS_LOBBY},
	EventMatchProgress: {STATUS_ACTIVE},
	EventFinishMatch:   {STATUS_ACTIVE},
	EventRestartMatch:  {STATUS_FINISHED},
}

// GameLoop is the single writer for all room state. Every mutation, from join
// to finish, happens on this goroutine; other goroutines only talk to it
// through the room's channels.
func (r *room) GameLoop() {
	for {
		select {
		case e := <-r.inbox:
			r.handleClientEvent(e)
		case jreq := <-r.joinRequests:
			r.handleJoinRequest(jreq)
		case p := <-r.playerRemovalRequests:
			r.handleRemovePlayer(p)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pingRequests:
			r.handlePingPlayers()
		case <-r.done:
			r.shutdown()
			return
		}
		r.flushSends()
	}
}

func (r *room) handleClientEvent(e clientEventEnvelope) {
	if _, member := r.states[e.from]; !member {
		// Event raced a removal. Nothing to notify.
		return
	}
	r.touch()

	if !r.eventLegal(e.event.eventKind()) {
		r.sendTo(e.from, makeErrorPacket(ErrIllegalStateTransition))
		return
	}

	switch ev := e.event.(type) {
	case readyEvent:
		r.handleReady(e.from)
	case progressEvent:
		r.handleProgress(e.from, ev.Score)
	case finishEvent:
		r.handleFinish(e.from, ev.FinalScore)
	case reactionEvent:
		r.handleReaction(e.from, ev.Emoji)
	case signalEvent:
		r.handleSignal(e.from, ev.Target, ev.Signal)
	case restartEvent:
		r.handleRestart()
	case leaveEvent:
		r.handleRemovePlayer(e.from)
	default:
		r.sendTo(e.from, makeErrorPacket(ErrUnknownEventKind))
	}
}

func (r *room) handleJoinRequest(jreq roomJoinRequest) {
	select {
	case <-jreq.abandoned:
		return
	default:
	}

	player := jreq.player
	username := player.Username()

	if n := utf8.RuneCountInString(username); n < 1 || n > 32 || username != strings.TrimSpace(username) {
		jreq.errChan <- ErrInvalidUsername
		return
	}
	if r.findMember(username) != nil {
		jreq.errChan <- ErrUsernameTaken
		return
	}
	if player.Role() == ROLE_PLAYER {
		if r.status == STATUS_FINISHED {
			jreq.errChan <- ErrRoomNotJoinable
			return
		}
		if r.playerCount() >= r.configs.MaxPlayers {
			jreq.errChan <- ErrRoomFull
			return
		}
	}

	r.players = append(r.players, player)
	r.states[player] = &playerState{joinedAt: time.Now()}
	player.SetRoom(r)
	r.touch()
	jreq.errChan <- nil

	r.broadcast(makeRoomStatePacket(r.snapshot()))
	r.parentLobby.RequestUpdateDescription(r.Description())
	log.Debug().Str("room", r.id).Str("username", username).Stringer("role", player.Role()).Msg("member joined")
}

func (r *room) handleRemovePlayer(toRemove Player) {
	if _, member := r.states[toRemove]; !member {
		return
	}

	for i, p := range r.players {
		if p == toRemove {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	delete(r.states, toRemove)
	toRemove.CancelAndRelease()
	r.touch()

	r.broadcast(makeRoomStatePacket(r.snapshot()))
	r.parentLobby.RequestUpdateDescription(r.Description())
	log.Debug().Str("room", r.id).Str("username", toRemove.Username()).Msg("member left")

	// A departure can satisfy the all-finished condition for the rest.
	if r.status == STATUS_ACTIVE && r.playerCount() > 0 && r.allPlayersFinished() {
		r.finishMatch()
	}
}

func (r *room) handleReady(p Player) {
	if p.Role() != ROLE_PLAYER {
		r.sendTo(p, makeErrorPacket(ErrIllegalStateTransition))
		return
	}

	r.states[p].ready = true
	r.broadcast(makeRoomStatePacket(r.snapshot()))

	if r.playerCount() >= r.configs.MinPlayers && r.allPlayersReady() {
		r.startCountdown(time.Now())
	}
}

func (r *room) handleProgress(p Player, score float64) {
	if p.Role() != ROLE_PLAYER {
		r.sendTo(p, makeErrorPacket(ErrIllegalStateTransition))
		return
	}

	// Last write wins; progress is a running total computed client-side.
	r.states[p].score = score
	r.broadcast(makeLiveProgressPacket(r.id, r.playerScores()))
}

func (r *room) handleFinish(p Player, finalScore float64) {
	if p.Role() != ROLE_PLAYER {
		r.sendTo(p, makeErrorPacket(ErrIllegalStateTransition))
		return
	}

	st := r.states[p]
	if st.finished {
		return
	}
	st.score = finalScore
	st.finished = true
	st.finishedAt = time.Now()

	r.broadcast(makeRoomStatePacket(r.snapshot()))

	if r.allPlayersFinished() {
		r.finishMatch()
	}
}

func (r *room) handleReaction(from Player, emoji string) {
	r.broadcast(makeReactionPacket(from.Username(), emoji))
}

func (r *room) handleSignal(from Player, target string, signal json.RawMessage) {
	recipient := r.findMember(target)
	if recipient == nil {
		r.sendTo(from, makeErrorPacket(ErrUnknownRecipient))
		return
	}
	r.sendTo(recipient, makeSignalPacket(from.Username(), signal))
}

func (r *room) handleRestart() {
	for _, st := range r.states {
		st.ready = false
		st.score = 0
		st.finished = false
		st.finishedAt = time.Time{}
	}
	r.status = STATUS_LOBBY
	r.broadcast(makeRoomStatePacket(r.snapshot()))
	r.parentLobby.RequestUpdateDescription(r.Description())
}

func (r *room) handleTick(now time.Time) {
	if r.idleTTL > 0 && now.Sub(r.lastActivity) > r.idleTTL {
		log.Info().Str("room", r.id).Msg("room idle past TTL, removing")
		r.parentLobby.RemoveRoom(r.id)
		return
	}

	switch r.status {
	case STATUS_COUNTDOWN:
		if !now.Before(r.nextTick) {
			r.startMatch(now)
		}
	case STATUS_ACTIVE:
		if !now.Before(r.nextTick) {
			r.finishMatch()
		}
	}
}

func (r *room) handlePingPlayers() {
	for _, p := range r.players {
		p.Ping()
	}
}

func (r *room) startCountdown(now time.Time) {
	r.status = STATUS_COUNTDOWN
	r.nextTick = now.Add(r.configs.CountdownDuration)
	r.broadcast(makeMatchStartedPacket(r.id, r.configs.CountdownDuration))
	r.parentLobby.RequestUpdateDescription(r.Description())

	if r.configs.CountdownDuration <= 0 {
		r.startMatch(now)
	}
}

func (r *room) startMatch(now time.Time) {
	r.status = STATUS_ACTIVE
	r.nextTick = now.Add(r.configs.MatchDuration)
	r.broadcast(makeRoomStatePacket(r.snapshot()))
	r.parentLobby.RequestUpdateDescription(r.Description())
}

func (r *room) finishMatch() {
	r.status = STATUS_FINISHED
	standings := r.computeStandings()
	winner := ""
	if len(standings) > 0 {
		winner = standings[0].Username
	}
	r.broadcast(makeMatchFinishedPacket(r.id, winner, standings))
	r.parentLobby.RequestUpdateDescription(r.Description())
	log.Info().Str("room", r.id).Str("winner", winner).Msg("match finished")
}

// computeStandings ranks players by final score. Ties go to the earlier
// finish; players that never finished rank below finishers at equal score.
func (r *room) computeStandings() []standing {
	type ranked struct {
		player Player
		state  *playerState
	}

	players := make([]ranked, 0, len(r.players))
	for _, p := range r.players {
		if p.Role() != ROLE_PLAYER {
			continue
		}
		players = append(players, ranked{player: p, state: r.states[p]})
	}

	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i].state, players[j].state
		if a.score != b.score {
			return a.score > b.score
		}
		if a.finished != b.finished {
			return a.finished
		}
		if a.finished && b.finished {
			return a.finishedAt.Before(b.finishedAt)
		}
		return false
	})

	standings := make([]standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, standing{
			Username: p.player.Username(),
			Score:    p.state.score,
			Finished: p.state.finished,
		})
	}
	return standings
}

func (r *room) shutdown() {
	for _, p := range r.players {
		p.CancelAndRelease()
	}
	r.players = nil
	r.states = make(map[Player]*playerState)
	r.pendingSends = nil
}

func (r *room) eventLegal(kind string) bool {
	allowed, restricted := legalStatuses[kind]
	if !restricted {
		return true
	}
	for _, status := range allowed {
		if status == r.status {
			return true
		}
	}
	return false
}

func (r *room) sendTo(p Player, data []byte) {
	r.pendingSends = append(r.pendingSends, dataSendTask{to: p, data: data})
}

func (r *room) broadcast(data []byte) {
	for _, p := range r.players {
		r.sendTo(p, data)
	}
}

func (r *room) takeSendTasks() []dataSendTask {
	tasks := r.pendingSends
	r.pendingSends = nil
	return tasks
}

func (r *room) flushSends() {
	for _, task := range r.takeSendTasks() {
		if err := task.to.Send(task.data); err != nil {
			log.Debug().Str("room", r.id).Str("to", task.to.Username()).Err(err).Msg("dropping packet for slow member")
		}
	}
}

func (r *room) findMember(username string) Player {
	for _, p := range r.players {
		if strings.EqualFold(p.Username(), username) {
			return p
		}
	}
	return nil
}

func (r *room) playerCount() int {
	count := 0
	for _, p := range r.players {
		if p.Role() == ROLE_PLAYER {
			count++
		}
	}
	return count
}

func (r *room) spectatorCount() int {
	count := 0
	for _, p := range r.players {
		if p.Role() == ROLE_SPECTATOR {
			count++
		}
	}
	return count
}

func (r *room) allPlayersReady() bool {
	for _, p := range r.players {
		if p.Role() == ROLE_PLAYER && !r.states[p].ready {
			return false
		}
	}
	return true
}

func (r *room) allPlayersFinished() bool {
	for _, p := range r.players {
		if p.Role() == ROLE_PLAYER && !r.states[p].finished {
			return false
		}
	}
	return true
}

func (r *room) playerScores() []playerScore {
	scores := make([]playerScore, 0, len(r.players))
	for _, p := range r.players {
		if p.Role() != ROLE_PLAYER {
			continue
		}
		scores = append(scores, playerScore{Username: p.Username(), Score: r.states[p].score})
	}
	return scores
}

func (r *room) snapshot() roomSnapshot {
	players := make([]participantSnapshot, 0, len(r.players))
	for _, p := range r.players {
		st := r.states[p]
		players = append(players, participantSnapshot{
			Username: p.Username(),
			Role:     p.Role().String(),
			Ready:    st.ready,
			Score:    st.score,
			Finished: st.finished,
		})
	}
	return roomSnapshot{
		RoomCode:       r.id,
		Status:         r.status.String(),
		Players:        players,
		SpectatorCount: r.spectatorCount(),
	}
}

func (r *room) touch() {
	r.lastActivity = time.Now()
}
