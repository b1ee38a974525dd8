package game

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Room is the state machine of a single game session. Every exported method
// takes the room lock, so joins, leaves, guesses and timer callbacks for the
// same room never interleave.
//
// Every trigger hands its events to the dispatcher before the lock is
// released, so a room's events reach each client in the order the room
// produced them. Request-driven methods also return what they delivered.
type Room struct {
	id         string
	locker     sync.Mutex
	log        zerolog.Logger
	words      *WordBank
	clock      Clock
	dispatcher Dispatcher
	settings   RoomSettings

	members map[string]*User
	order   []string
	hostID  string

	phase       RoomPhase
	drawerIndex int
	drawerID    string
	currentWord string
	currentHint string
	totalRounds int
	round       int
	timeLeft    int
	usedWords   map[string]struct{}
	guessers    map[string]struct{}

	scheduler     *RoundScheduler
	cancelPending func() bool
	// epoch changes on every transition; timer callbacks carry the epoch they
	// were scheduled in and are ignored once it moved on.
	epoch  uint64
	closed bool
}

func NewRoom(id string, words *WordBank, clock Clock, dispatcher Dispatcher, settings RoomSettings, log zerolog.Logger) *Room {
	return &Room{
		id:          id,
		log:         log.With().Str("room", id).Logger(),
		words:       words,
		clock:       clock,
		dispatcher:  dispatcher,
		settings:    settings,
		members:     make(map[string]*User),
		phase:       PhaseLobby,
		drawerIndex: -1,
		totalRounds: settings.DefaultRounds,
		usedWords:   make(map[string]struct{}),
		guessers:    make(map[string]struct{}),
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) MemberCount() int {
	r.locker.Lock()
	defer r.locker.Unlock()
	return len(r.order)
}

// outbox collects the events produced while handling one trigger.
type outbox []Outbound

func (o *outbox) send(to []string, event string, payload any) {
	if len(to) == 0 {
		return
	}
	*o = append(*o, Outbound{To: to, Event: event, Payload: payload})
}

// deliver dispatches out while the caller still holds the room lock.
func (r *Room) deliver(out outbox) []Outbound {
	if len(out) > 0 {
		r.dispatcher.Dispatch(out)
	}
	return out
}

func (r *Room) everyone() []string {
	return slices.Clone(r.order)
}

func (r *Room) everyoneBut(id string) []string {
	to := make([]string, 0, len(r.order))
	for _, m := range r.order {
		if m != id {
			to = append(to, m)
		}
	}
	return to
}

func (r *Room) users() []User {
	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, *r.members[id])
	}
	return users
}

func (r *Room) roundInfo() GameStartedPayload {
	info := GameStartedPayload{
		WordHint:   r.currentHint,
		RoundsLeft: r.totalRounds - r.round + 1,
	}
	if drawer, ok := r.members[r.drawerID]; ok {
		info.DrawerName = drawer.Name
	}
	return info
}

func systemMessage(format string, args ...any) ChatPayload {
	return ChatPayload{Message: fmt.Sprintf(format, args...), Name: systemSender}
}

func (r *Room) AddUser(connID, name string) ([]Outbound, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}
	if _, exists := r.members[connID]; exists {
		return nil, ErrAlreadyInRoom
	}

	r.members[connID] = &User{ID: connID, Name: name}
	r.order = append(r.order, connID)
	if r.hostID == "" {
		r.hostID = connID
	}
	r.log.Info().Str("user", name).Int("members", len(r.order)).Msg("user joined")

	var out outbox
	out.send(r.everyoneBut(connID), EventUserJoined, name)
	out.send(r.everyone(), EventUserList, r.users())
	if r.hostID == connID {
		out.send([]string{connID}, EventSetHost, nil)
	}
	if r.phase == PhaseRoundActive {
		out.send([]string{connID}, EventGameStarted, r.roundInfo())
		out.send([]string{connID}, EventTimer, r.timeLeft)
	}
	return r.deliver(out), nil
}

// RemoveUser drops a member and reports whether the room is now empty, in
// which case the caller must delete it from the registry. A game left
// without players is over.
func (r *Room) RemoveUser(connID string) ([]Outbound, bool) {
	r.locker.Lock()
	defer r.locker.Unlock()

	user, exists := r.members[connID]
	if !exists {
		return nil, len(r.order) == 0
	}

	idx := slices.Index(r.order, connID)
	r.order = slices.Delete(r.order, idx, idx+1)
	delete(r.members, connID)
	delete(r.guessers, connID)
	if idx <= r.drawerIndex {
		r.drawerIndex--
	}
	wasDrawer := connID == r.drawerID
	if wasDrawer {
		r.drawerID = ""
	}
	r.log.Info().Str("user", user.Name).Int("members", len(r.order)).Msg("user left")

	var out outbox
	out.send(r.everyone(), EventUserLeft, user.Name)
	out.send(r.everyone(), EventUserList, r.users())

	if len(r.order) == 0 {
		r.hostID = ""
		if r.phase == PhaseRoundActive || r.phase == PhaseRoundTransition {
			r.endGame(&out)
		}
		return r.deliver(out), true
	}

	if r.hostID == connID {
		r.hostID = r.order[0]
		out.send([]string{r.hostID}, EventSetHost, nil)
	}

	if r.phase == PhaseRoundActive {
		switch {
		case wasDrawer:
			r.stopTimers()
			r.currentWord, r.currentHint = "", ""
			r.phase = PhaseRoundTransition
			out.send(r.everyone(), EventReceiveMessage, systemMessage("🔴 Drawer %s disconnected. Starting next round...", user.Name))
			r.deferAdvance(r.settings.DrawerLeftDelay)
		case len(r.guessers) > 0 && r.allGuessed():
			r.endRoundEarly(&out)
		}
	}
	return r.deliver(out), false
}

// StartGame begins a new game when requested by the host outside of a
// running game. rounds <= 0 selects the default.
func (r *Room) StartGame(connID string, rounds int) []Outbound {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.closed || connID != r.hostID {
		return nil
	}
	if r.phase == PhaseRoundActive || r.phase == PhaseRoundTransition {
		return nil
	}
	if rounds <= 0 {
		rounds = r.settings.DefaultRounds
	}

	r.totalRounds = rounds
	r.round = 0
	r.drawerIndex = -1
	r.drawerID = ""
	r.usedWords = make(map[string]struct{})
	for _, u := range r.members {
		u.Score = 0
	}
	r.log.Info().Int("rounds", rounds).Msg("game started")

	var out outbox
	r.advance(&out)
	return r.deliver(out)
}

// HandleMessage treats text as a guess when the sender may guess, and as
// plain chat otherwise.
func (r *Room) HandleMessage(connID, text string) []Outbound {
	r.locker.Lock()
	defer r.locker.Unlock()

	user, exists := r.members[connID]
	if !exists {
		return nil
	}

	var out outbox
	canGuess := r.phase == PhaseRoundActive && connID != r.drawerID && !user.HasGuessed
	if !canGuess || !EvaluateGuess(text, r.currentWord) {
		out.send(r.everyone(), EventReceiveMessage, ChatPayload{Message: text, Name: user.Name})
		return r.deliver(out)
	}

	user.HasGuessed = true
	r.guessers[connID] = struct{}{}
	points := GuesserPoints(r.timeLeft)
	user.Score += points
	r.log.Debug().Str("user", user.Name).Int("points", points).Msg("correct guess")

	out.send(r.everyone(), EventCorrectGuess, CorrectGuessPayload{Guesser: user.Name})
	out.send(r.everyone(), EventReceiveMessage, systemMessage("🎉 %s guessed correctly! (+%d points)", user.Name, points))
	out.send(r.everyone(), EventUserList, r.users())

	if r.allGuessed() {
		r.endRoundEarly(&out)
	}
	return r.deliver(out)
}

// Relay forwards drawing traffic from a member to everyone else unchanged.
func (r *Room) Relay(connID, event string, payload any) []Outbound {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, exists := r.members[connID]; !exists {
		return nil
	}
	var out outbox
	out.send(r.everyoneBut(connID), event, payload)
	return r.deliver(out)
}

// CloseIfEmpty tears the room down if nobody is left in it.
func (r *Room) CloseIfEmpty() bool {
	r.locker.Lock()
	defer r.locker.Unlock()

	if len(r.order) > 0 {
		return false
	}
	r.shutdown()
	return true
}

func (r *Room) Close() {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.shutdown()
}

func (r *Room) shutdown() {
	if r.closed {
		return
	}
	r.closed = true
	r.stopTimers()
	r.epoch++
	r.phase = PhaseGameOver
	r.drawerID, r.currentWord, r.currentHint = "", "", ""
	r.log.Debug().Msg("room closed")
}

func (r *Room) allGuessed() bool {
	for _, id := range r.order {
		if id != r.drawerID && !r.members[id].HasGuessed {
			return false
		}
	}
	return true
}

// advance moves to the next round, or ends the game after the last one.
func (r *Room) advance(out *outbox) {
	r.round++
	if r.round > r.totalRounds || len(r.order) == 0 {
		r.endGame(out)
		return
	}

	clear(r.guessers)
	r.drawerIndex = (r.drawerIndex + 1) % len(r.order)
	r.drawerID = r.order[r.drawerIndex]
	r.currentWord = r.words.PickWord(r.usedWords)
	r.currentHint = r.words.BuildHint(r.currentWord)
	r.timeLeft = r.settings.RoundDuration
	for _, u := range r.members {
		u.HasGuessed = false
	}
	r.phase = PhaseRoundActive
	r.startScheduler()

	r.log.Info().Int("round", r.round).Str("drawer", r.members[r.drawerID].Name).Msg("round started")

	out.send(r.everyone(), EventGameStarted, r.roundInfo())
	out.send([]string{r.drawerID}, EventYourWord, r.currentWord)
	out.send(r.everyone(), EventUserList, r.users())
}

func (r *Room) endRoundEarly(out *outbox) {
	r.stopTimers()
	correct := len(r.guessers)
	if drawer, ok := r.members[r.drawerID]; ok && correct > 0 {
		points := DrawerPoints(correct)
		drawer.Score += points
		out.send(r.everyone(), EventReceiveMessage, systemMessage("🎨 %s gets %d points for drawing!", drawer.Name, points))
		out.send(r.everyone(), EventUserList, r.users())
	}
	r.finishRound(out, r.settings.EarlyEndDelay)
}

// finishRound is the single exit of an active round, whichever trigger
// ended it.
func (r *Room) finishRound(out *outbox, delay time.Duration) {
	r.stopTimers()
	r.currentWord, r.currentHint = "", ""
	if r.round >= r.totalRounds {
		r.endGame(out)
		return
	}
	r.phase = PhaseRoundTransition
	r.deferAdvance(delay)
}

func (r *Room) endGame(out *outbox) {
	r.stopTimers()
	r.epoch++
	r.phase = PhaseGameOver

	if len(r.order) > 0 {
		standings := DetermineWinners(r.users())
		out.send(r.everyone(), EventGameEnded, GameEndedPayload{Message: standings.Announcement()})
		r.log.Info().Int("max_score", standings.MaxScore).Bool("tie", standings.IsTie()).Msg("game over")
	}

	r.drawerID, r.currentWord, r.currentHint = "", "", ""
	r.drawerIndex = -1
	r.round = 0
	r.timeLeft = 0
	clear(r.guessers)
	r.usedWords = make(map[string]struct{})
	for _, u := range r.members {
		u.HasGuessed = false
	}
}

func (r *Room) startScheduler() {
	r.stopTimers()
	r.epoch++
	epoch := r.epoch

	r.scheduler = NewRoundScheduler(r.clock)
	r.scheduler.Start(r.timeLeft,
		func(remaining int) { r.handleTick(epoch, remaining) },
		func() { r.handleExpiry(epoch) },
	)
}

func (r *Room) deferAdvance(delay time.Duration) {
	r.epoch++
	epoch := r.epoch
	r.cancelPending = r.clock.AfterFunc(delay, func() { r.handleDeferredAdvance(epoch) })
}

func (r *Room) stopTimers() {
	if r.scheduler != nil {
		r.scheduler.Cancel()
		r.scheduler = nil
	}
	if r.cancelPending != nil {
		r.cancelPending()
		r.cancelPending = nil
	}
}

func (r *Room) isCurrent(epoch uint64, phase RoomPhase) bool {
	return !r.closed && r.epoch == epoch && r.phase == phase
}

func (r *Room) handleTick(epoch uint64, remaining int) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if !r.isCurrent(epoch, PhaseRoundActive) {
		return
	}
	r.timeLeft = remaining
	var out outbox
	out.send(r.everyone(), EventTimer, remaining)
	r.deliver(out)
}

func (r *Room) handleExpiry(epoch uint64) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if !r.isCurrent(epoch, PhaseRoundActive) {
		return
	}
	r.log.Debug().Int("round", r.round).Msg("round expired")
	var out outbox
	r.finishRound(&out, r.settings.ExpiryDelay)
	r.deliver(out)
}

func (r *Room) handleDeferredAdvance(epoch uint64) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if !r.isCurrent(epoch, PhaseRoundTransition) {
		return
	}
	r.cancelPending = nil
	var out outbox
	r.advance(&out)
	r.deliver(out)
}
