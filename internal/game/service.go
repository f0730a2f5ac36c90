package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/config"
	"github.com/exportnine/server/internal/db/repository"
	"github.com/exportnine/server/pkg/http/ws"
)

// Valuer answers per-product export values for round resolution.
type Valuer interface {
	ProductValues(ctx context.Context, productID string) map[string]float64
	Preload(ctx context.Context, productIDs []string)
}

// ResultSide identifies one side of a finished match for settlement.
type ResultSide struct {
	AccountID uuid.UUID
	Name      string
	Bot       bool
}

// ResultReport is a finished match's outcome, handed to the settler.
type ResultReport struct {
	A        ResultSide
	B        ResultSide
	ScoreA   int
	ScoreB   int
	Forfeit  bool
	Duration time.Duration
}

// RatingChange is an applied rating delta reported back to clients.
type RatingChange struct {
	PlayerID  uuid.UUID
	NewRating int
	Delta     int
}

// Settler applies rating settlement for a finished match exactly once.
type Settler interface {
	Settle(ctx context.Context, report ResultReport) ([]RatingChange, error)
}

// Broadcaster is the transport fan-out used for match events.
type Broadcaster interface {
	SendToPlayer(playerID uuid.UUID, msg ws.Message) error
	BroadcastToMatch(matchID uuid.UUID, msg ws.Message) error
	JoinMatch(matchID, playerID uuid.UUID)
	LeaveMatch(matchID, playerID uuid.UUID)
	CloseMatch(matchID uuid.UUID)
}

// ProfileLoader reads durable player records to decorate sessions with
// ratings. Optional; sessions work without one.
type ProfileLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Player, error)
}

// Service drives the match lifecycle: queueing, pairing, round play,
// pause/rejoin, forfeiture, and settlement hand-off.
type Service struct {
	cfg      config.Game
	roster   *Roster
	maker    *MatchMaker
	rooms    *RoomManager
	timers   *TimerRegistry
	valuer   Valuer
	settler  Settler
	profiles ProfileLoader
	bcast    Broadcaster
	logger   zerolog.Logger
}

func NewService(
	cfg config.Game,
	roster *Roster,
	maker *MatchMaker,
	rooms *RoomManager,
	timers *TimerRegistry,
	valuer Valuer,
	settler Settler,
	profiles ProfileLoader,
	bcast Broadcaster,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		roster:   roster,
		maker:    maker,
		rooms:    rooms,
		timers:   timers,
		valuer:   valuer,
		settler:  settler,
		profiles: profiles,
		bcast:    bcast,
		logger:   logger.With().Str("component", "game").Logger(),
	}
}

// RegisterSession builds a session participant, decorating it with the
// durable rating when an account is attached.
func (s *Service) RegisterSession(ctx context.Context, accountID uuid.UUID, name string) *Player {
	p := NewPlayer(accountID, name)
	if accountID != uuid.Nil && s.profiles != nil {
		if record, err := s.profiles.GetByID(ctx, accountID); err == nil {
			r := record.Rating
			p.Rating = &r
			if p.Name == "" {
				p.Name = record.Name
			}
		} else {
			s.logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("profile lookup failed")
		}
	}
	if p.Name == "" {
		p.Name = "Guest"
	}
	s.roster.Register(p)
	return p
}

// JoinQueue enqueues a participant and pairs immediately when possible.
func (s *Service) JoinQueue(ctx context.Context, p *Player) error {
	if s.roster.MatchOf(p.ID) != nil {
		return ErrAlreadyInMatch
	}
	p.State = PlayerWaiting
	s.roster.Enqueue(p)
	s.send(p.ID, ws.TypePlayerRegistered, ws.PlayerRegisteredPayload{
		PlayerID: p.ID.String(),
		Name:     p.Name,
		Waiting:  true,
	})

	if m := s.maker.FindPair(); m != nil {
		return s.launch(ctx, m)
	}
	return nil
}

// PlayBot starts a match against the scripted opponent immediately.
func (s *Service) PlayBot(ctx context.Context, p *Player) error {
	if s.roster.MatchOf(p.ID) != nil {
		return ErrAlreadyInMatch
	}
	s.send(p.ID, ws.TypePlayerRegistered, ws.PlayerRegisteredPayload{
		PlayerID: p.ID.String(),
		Name:     p.Name,
		Waiting:  false,
	})
	return s.launch(ctx, s.maker.CreateBotMatch(p))
}

// JoinRoom parks the participant in a private room, launching the match once
// both sides have arrived.
func (s *Service) JoinRoom(ctx context.Context, p *Player, code string) error {
	if s.roster.MatchOf(p.ID) != nil {
		return ErrAlreadyInMatch
	}
	p.RoomCode = code
	partner, ready, err := s.rooms.Claim(code, p)
	if err != nil {
		return err
	}
	s.send(p.ID, ws.TypePlayerRegistered, ws.PlayerRegisteredPayload{
		PlayerID: p.ID.String(),
		Name:     p.Name,
		Waiting:  !ready,
	})
	if !ready {
		return nil
	}
	return s.launch(ctx, s.maker.CreateRoomMatch(partner, p, code))
}

// launch opens play on a freshly built match: samples rounds, warms the
// valuation cache, announces the pairing, and starts round 1.
func (s *Service) launch(ctx context.Context, m *Match) error {
	if err := s.maker.Start(m); err != nil {
		return err
	}

	productIDs := s.maker.RoundProducts(m)
	go s.valuer.Preload(context.Background(), productIDs)

	m.mu.Lock()
	matchID := m.ID
	roundCount := len(m.Rounds)
	players := append([]*Player(nil), m.Players...)
	m.mu.Unlock()

	for _, p := range players {
		s.bcast.JoinMatch(matchID, p.ID)
	}
	for _, p := range players {
		opponent := players[0]
		if opponent.ID == p.ID {
			opponent = players[1]
		}
		s.send(p.ID, ws.TypeMatchFound, ws.MatchFoundPayload{
			MatchID:    matchID.String(),
			PlayerID:   p.ID.String(),
			Opponent:   playerInfo(opponent),
			Hand:       handPayload(p),
			RoundCount: roundCount,
		})
	}

	s.logger.Info().Str("match_id", matchID.String()).Int("rounds", roundCount).Msg("match started")
	s.advanceRound(m, 1)
	return nil
}

// advanceRound moves the round pointer and announces the new round. The
// scripted opponent's move is armed on a think-delay timer.
func (s *Service) advanceRound(m *Match, n int) {
	m.mu.Lock()
	if m.State != MatchActive || n < 1 || n > len(m.Rounds) {
		m.mu.Unlock()
		return
	}
	m.CurrentRound = n
	round := m.Rounds[n-1]
	product := round.Product
	scores := m.scores()
	matchID := m.ID
	players := append([]*Player(nil), m.Players...)
	var hasBot bool
	for _, p := range players {
		if p.Bot {
			hasBot = true
		}
	}
	m.mu.Unlock()

	for _, p := range players {
		s.send(p.ID, ws.TypeRoundStarted, ws.RoundStartedPayload{
			MatchID:         matchID.String(),
			Round:           n,
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductCategory: product.Category,
			Hand:            handPayload(p),
			Scores:          scores,
		})
	}

	if hasBot {
		s.timers.Schedule(botKey(matchID), s.cfg.BotThinkDelay, func() {
			s.botPlay(m, n)
		})
	}
}

// SubmitChoice records a participant's pick for the current round and
// triggers resolution once every side has played.
func (s *Service) SubmitChoice(ctx context.Context, playerID uuid.UUID, region string) error {
	m := s.roster.MatchOf(playerID)
	if m == nil {
		return ErrMatchNotFound
	}

	m.mu.Lock()
	switch m.State {
	case MatchFinished:
		reason := m.ForfeitReason
		m.mu.Unlock()
		if reason != "" {
			return ErrMatchForfeited
		}
		return ErrMatchFinished
	case MatchActive:
	default:
		m.mu.Unlock()
		return ErrMatchNotActive
	}
	if m.CurrentRound == 0 {
		m.mu.Unlock()
		return ErrRoundNotStarted
	}
	p := m.player(playerID)
	if p == nil {
		m.mu.Unlock()
		return ErrNotYourMatch
	}
	round := m.currentRound()
	if _, dup := round.Plays[playerID]; dup {
		m.mu.Unlock()
		return ErrAlreadyPlayed
	}
	card := p.cardFor(region)
	if card == nil {
		m.mu.Unlock()
		return ErrTokenNotInHand
	}

	card.Played = true
	round.Plays[playerID] = card
	p.Touch()

	matchID := m.ID
	roundNum := m.CurrentRound
	product := round.Product
	complete := m.allSubmitted()
	var plays map[uuid.UUID]*Card
	if complete {
		m.resolving = true
		plays = make(map[uuid.UUID]*Card, len(round.Plays))
		for id, c := range round.Plays {
			plays[id] = c
		}
	}
	m.mu.Unlock()

	if s.cfg.BroadcastPicks {
		s.broadcast(matchID, ws.TypeTokenPlayed, ws.TokenPlayedPayload{
			MatchID:  matchID.String(),
			Round:    roundNum,
			PlayerID: playerID.String(),
			Region:   region,
		})
	}

	if complete {
		s.resolveRound(ctx, m, roundNum, product.ID, plays)
	}
	return nil
}

// resolveRound looks up valuations (the match lock is released for the I/O),
// scores the round, and schedules the next transition. A pause requested
// while resolution was in flight is applied here, after the books close.
func (s *Service) resolveRound(ctx context.Context, m *Match, n int, productID string, plays map[uuid.UUID]*Card) {
	values := s.valuer.ProductValues(ctx, productID)

	m.mu.Lock()
	round := m.Rounds[n-1]
	if round.Complete || m.State == MatchFinished {
		m.resolving = false
		m.mu.Unlock()
		return
	}

	resolved := make([]ws.ResolvedPlay, 0, len(plays))
	best := -1.0
	var winners []uuid.UUID
	for pid, card := range plays {
		v := values[card.Country.ID]
		round.Values[card.Country.ID] = v
		resolved = append(resolved, ws.ResolvedPlay{
			PlayerID: pid.String(),
			Region:   card.Country.ID,
			Value:    v,
		})
		switch {
		case v > best:
			best = v
			winners = winners[:0]
			winners = append(winners, pid)
		case v == best:
			winners = append(winners, pid)
		}
	}

	if len(winners) == 1 {
		winner := m.player(winners[0])
		winner.Score++
		round.WinnerID = winners[0].String()
	} else {
		// Equal top valuations score nobody, including both sides
		// picking the same region.
		round.WinnerID = TieWinner
	}
	round.Complete = true
	m.resolving = false

	final := n == len(m.Rounds)
	matchID := m.ID
	scores := m.scores()
	winnerMark := round.WinnerID

	var pausedID uuid.UUID
	if m.pendingPause {
		m.pendingPause = false
		pid := m.pendingPausePlayer
		m.pendingPausePlayer = uuid.Nil
		if p := m.player(pid); p != nil && m.State == MatchActive {
			m.State = MatchPaused
			m.PauseExpiry = time.Now().Add(s.cfg.GraceWindow)
			m.deferred = func() { s.applyTransition(m, n, final) }
			pausedID = pid
			s.timers.Schedule(graceKey(matchID, pid), s.cfg.GraceWindow, func() {
				s.Forfeit(m, pid, ReasonDisconnect)
			})
		}
	}
	if pausedID == uuid.Nil {
		s.timers.Schedule(transitionKey(matchID), s.cfg.PresentationDelay, func() {
			s.applyTransition(m, n, final)
		})
	}
	m.mu.Unlock()

	s.broadcast(matchID, ws.TypeRoundResolved, ws.RoundResolvedPayload{
		MatchID:  matchID.String(),
		Round:    n,
		Plays:    resolved,
		WinnerID: winnerMark,
		Scores:   scores,
	})

	if pausedID != uuid.Nil {
		s.broadcast(matchID, ws.TypeOpponentDisconnected, ws.OpponentDisconnectedPayload{
			MatchID:      matchID.String(),
			PlayerID:     pausedID.String(),
			GraceSeconds: int(s.cfg.GraceWindow.Seconds()),
		})
	}
}

// applyTransition advances to the next round or finishes the match once the
// presentation delay elapses. A pause in the interim re-defers it; the
// rejoin path replays it.
func (s *Service) applyTransition(m *Match, lastRound int, final bool) {
	m.mu.Lock()
	if m.State == MatchFinished {
		m.mu.Unlock()
		return
	}
	if m.State == MatchPaused || m.pendingPause {
		m.deferred = func() { s.applyTransition(m, lastRound, final) }
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if final {
		s.finish(m)
	} else {
		s.advanceRound(m, lastRound+1)
	}
}

// finish closes the match normally and hands the outcome to settlement.
func (s *Service) finish(m *Match) {
	m.mu.Lock()
	if m.State == MatchFinished {
		m.mu.Unlock()
		return
	}
	m.State = MatchFinished

	a, b := m.Players[0], m.Players[1]
	switch {
	case a.Score > b.Score:
		m.WinnerID = a.ID
	case b.Score > a.Score:
		m.WinnerID = b.ID
	default:
		m.Draw = true
	}

	matchID := m.ID
	scores := m.scores()
	winnerID := m.WinnerID
	draw := m.Draw
	alreadySettled := m.settled
	m.settled = true
	report := s.buildReport(m, false)
	m.mu.Unlock()

	var changes []ws.RatingChange
	if !alreadySettled {
		changes = s.settle(report)
	}

	payload := ws.MatchEndedPayload{
		MatchID: matchID.String(),
		Draw:    draw,
		Scores:  scores,
		Ratings: changes,
	}
	if winnerID != uuid.Nil {
		payload.WinnerID = winnerID.String()
	}
	s.broadcast(matchID, ws.TypeMatchEnded, payload)

	s.logger.Info().Str("match_id", matchID.String()).Bool("draw", draw).Msg("match finished")
	s.timers.Schedule(cleanupKey(matchID), s.cfg.EndCleanupDelay, func() {
		s.cleanup(m)
	})
}

// Forfeit ends the match against the quitter: their score drops to 0, the
// remaining side is credited with every round, and settlement runs once.
func (s *Service) Forfeit(m *Match, quitterID uuid.UUID, reason string) {
	m.mu.Lock()
	if m.State == MatchFinished {
		m.mu.Unlock()
		return
	}
	m.State = MatchFinished
	m.ForfeitReason = reason

	var winner *Player
	for _, p := range m.Players {
		if p.ID == quitterID {
			p.Score = 0
		} else {
			p.Score = len(m.Rounds)
			winner = p
		}
	}
	if winner != nil {
		m.WinnerID = winner.ID
	}

	matchID := m.ID
	scores := m.scores()
	winnerID := m.WinnerID
	alreadySettled := m.settled
	m.settled = true
	report := s.buildReport(m, true)
	m.mu.Unlock()

	s.timers.CancelMatch(matchID)

	var changes []ws.RatingChange
	if !alreadySettled {
		changes = s.settle(report)
	}

	payload := ws.MatchForfeitedPayload{
		MatchID: matchID.String(),
		Reason:  reason,
		Scores:  scores,
		Ratings: changes,
	}
	if winnerID != uuid.Nil {
		payload.WinnerID = winnerID.String()
	}
	s.broadcast(matchID, ws.TypeMatchForfeited, payload)

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("quitter_id", quitterID.String()).
		Str("reason", reason).
		Msg("match forfeited")
	s.timers.Schedule(cleanupKey(matchID), s.cfg.EndCleanupDelay, func() {
		s.cleanup(m)
	})
}

// HandleDisconnect reacts to a transport-level drop: waiting players are
// purged, in-match players get a grace window before forfeiture. A drop
// during an in-flight resolution only flags a pending pause.
func (s *Service) HandleDisconnect(playerID uuid.UUID) {
	p := s.roster.Player(playerID)
	if p == nil {
		return
	}

	m := s.roster.MatchOf(playerID)
	if m == nil {
		if p.RoomCode != "" {
			s.rooms.Abandon(p.RoomCode, playerID)
		}
		s.roster.RemoveParticipant(playerID)
		s.logger.Info().Str("player_id", playerID.String()).Msg("waiting player left")
		return
	}

	m.mu.Lock()
	if m.State == MatchFinished {
		m.mu.Unlock()
		return
	}
	mp := m.player(playerID)
	if mp == nil {
		m.mu.Unlock()
		return
	}
	mp.State = PlayerDisconnected

	allGone := true
	for _, h := range m.humans() {
		if h.State != PlayerDisconnected {
			allGone = false
		}
	}
	if allGone {
		m.mu.Unlock()
		s.abandon(m)
		return
	}

	if m.resolving {
		// Resolution owns the books right now; pause after it lands.
		m.pendingPause = true
		m.pendingPausePlayer = playerID
		m.mu.Unlock()
		return
	}

	if m.State == MatchActive {
		m.State = MatchPaused
	}
	m.PauseExpiry = time.Now().Add(s.cfg.GraceWindow)
	matchID := m.ID
	m.mu.Unlock()

	s.timers.Schedule(graceKey(matchID, playerID), s.cfg.GraceWindow, func() {
		s.Forfeit(m, playerID, ReasonDisconnect)
	})

	s.broadcast(matchID, ws.TypeOpponentDisconnected, ws.OpponentDisconnectedPayload{
		MatchID:      matchID.String(),
		PlayerID:     playerID.String(),
		GraceSeconds: int(s.cfg.GraceWindow.Seconds()),
	})
}

// Rejoin restores a disconnected participant: cancels the pending
// forfeiture, resumes play, and replays any transition deferred by the
// pause.
func (s *Service) Rejoin(ctx context.Context, matchID, playerID uuid.UUID) error {
	m := s.roster.Match(matchID)
	if m == nil {
		return ErrMatchNotFound
	}

	m.mu.Lock()
	p := m.player(playerID)
	if p == nil {
		m.mu.Unlock()
		return ErrNotYourMatch
	}
	if m.State == MatchFinished {
		reason := m.ForfeitReason
		m.mu.Unlock()
		if reason != "" {
			return ErrMatchForfeited
		}
		return ErrMatchFinished
	}

	p.State = PlayerActive
	p.Touch()
	if m.pendingPausePlayer == playerID {
		m.pendingPause = false
		m.pendingPausePlayer = uuid.Nil
	}

	resume := m.State == MatchPaused
	for _, h := range m.humans() {
		if h.ID != playerID && h.State == PlayerDisconnected {
			resume = false
		}
	}
	var deferred func()
	if resume {
		m.State = MatchActive
		m.PauseExpiry = time.Time{}
		deferred = m.deferred
		m.deferred = nil
	}
	m.mu.Unlock()

	s.timers.Cancel(graceKey(matchID, playerID))
	s.bcast.JoinMatch(matchID, playerID)
	s.broadcast(matchID, ws.TypeOpponentReconnected, ws.OpponentReconnectedPayload{
		MatchID:  matchID.String(),
		PlayerID: playerID.String(),
	})
	s.sendStateSync(playerID, m)

	s.logger.Info().Str("match_id", matchID.String()).Str("player_id", playerID.String()).Msg("player rejoined")

	if deferred != nil {
		deferred()
	}
	return nil
}

// Heartbeat refreshes a participant's liveness timestamp.
func (s *Service) Heartbeat(playerID uuid.UUID) {
	if p := s.roster.Player(playerID); p != nil {
		p.Touch()
	}
}

// Leaving handles an explicit exit: an immediate forfeit when in a match,
// otherwise a queue/room purge.
func (s *Service) Leaving(playerID uuid.UUID) {
	m := s.roster.MatchOf(playerID)
	if m == nil {
		s.HandleDisconnect(playerID)
		return
	}

	m.mu.Lock()
	finished := m.State == MatchFinished
	m.mu.Unlock()
	if finished {
		s.roster.RemoveParticipant(playerID)
		return
	}
	s.Forfeit(m, playerID, ReasonLeft)
}

// RequestState answers a client's resync request with a state snapshot.
func (s *Service) RequestState(playerID, matchID uuid.UUID) error {
	m := s.roster.Match(matchID)
	if m == nil {
		m = s.roster.MatchOf(playerID)
	}
	if m == nil {
		return ErrMatchNotFound
	}
	m.mu.Lock()
	member := m.player(playerID) != nil
	m.mu.Unlock()
	if !member {
		return ErrNotYourMatch
	}
	s.sendStateSync(playerID, m)
	return nil
}

// abandon reclaims a match every human walked away from, with no
// settlement bookkeeping.
func (s *Service) abandon(m *Match) {
	m.mu.Lock()
	m.State = MatchFinished
	matchID := m.ID
	m.mu.Unlock()

	s.logger.Info().Str("match_id", matchID.String()).Msg("match abandoned")
	s.timers.CancelMatch(matchID)
	s.roster.RemoveMatch(matchID)
	s.bcast.CloseMatch(matchID)
}

func (s *Service) cleanup(m *Match) {
	m.mu.Lock()
	matchID := m.ID
	m.mu.Unlock()

	s.timers.CancelMatch(matchID)
	s.roster.RemoveMatch(matchID)
	s.bcast.CloseMatch(matchID)
	s.logger.Debug().Str("match_id", matchID.String()).Msg("match reclaimed")
}

// botPlay picks the scripted opponent's strongest remaining card.
func (s *Service) botPlay(m *Match, roundNum int) {
	m.mu.Lock()
	if m.State != MatchActive || m.CurrentRound != roundNum {
		m.mu.Unlock()
		return
	}
	var bot *Player
	for _, p := range m.Players {
		if p.Bot {
			bot = p
		}
	}
	if bot == nil {
		m.mu.Unlock()
		return
	}
	round := m.currentRound()
	if _, done := round.Plays[bot.ID]; done {
		m.mu.Unlock()
		return
	}
	productID := round.Product.ID
	botID := bot.ID
	var regions []string
	for _, c := range bot.Hand {
		if !c.Played {
			regions = append(regions, c.Country.ID)
		}
	}
	m.mu.Unlock()

	if len(regions) == 0 {
		return
	}

	values := s.valuer.ProductValues(context.Background(), productID)
	best := regions[0]
	for _, region := range regions[1:] {
		if values[region] > values[best] {
			best = region
		}
	}

	m.mu.Lock()
	stale := m.State != MatchActive || m.CurrentRound != roundNum
	m.mu.Unlock()
	if stale {
		return
	}

	if err := s.SubmitChoice(context.Background(), botID, best); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("bot submit rejected")
	}
}

func (s *Service) sendStateSync(playerID uuid.UUID, m *Match) {
	m.mu.Lock()
	p := m.player(playerID)
	if p == nil {
		m.mu.Unlock()
		return
	}
	opponent := m.opponentOf(playerID)
	payload := ws.StateSyncPayload{
		MatchID: m.ID.String(),
		State:   string(m.State),
		Round:   m.CurrentRound,
		Hand:    handPayload(p),
		Scores:  m.scores(),
	}
	if round := m.currentRound(); round != nil {
		payload.ProductID = round.Product.ID
		payload.ProductName = round.Product.Name
		for pid := range round.Plays {
			payload.Submitted = append(payload.Submitted, pid.String())
		}
	}
	if opponent != nil {
		payload.Opponent = playerInfo(opponent)
		payload.OpponentOffline = opponent.State == PlayerDisconnected
	}
	m.mu.Unlock()

	s.send(playerID, ws.TypeStateSync, payload)
}

func (s *Service) buildReport(m *Match, forfeit bool) ResultReport {
	a, b := m.Players[0], m.Players[1]
	report := ResultReport{
		A:       ResultSide{AccountID: a.AccountID, Name: a.Name, Bot: a.Bot},
		B:       ResultSide{AccountID: b.AccountID, Name: b.Name, Bot: b.Bot},
		ScoreA:  a.Score,
		ScoreB:  b.Score,
		Forfeit: forfeit,
	}
	if !m.StartedAt.IsZero() {
		report.Duration = time.Since(m.StartedAt)
	}
	return report
}

func (s *Service) settle(report ResultReport) []ws.RatingChange {
	changes, err := s.settler.Settle(context.Background(), report)
	if err != nil {
		s.logger.Error().Err(err).Msg("settlement failed")
		return nil
	}
	out := make([]ws.RatingChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, ws.RatingChange{
			PlayerID:  c.PlayerID.String(),
			NewRating: c.NewRating,
			Delta:     c.Delta,
		})
	}
	return out
}

func (s *Service) send(playerID uuid.UUID, msgType string, payload any) {
	msg, err := envelope(msgType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("type", msgType).Msg("payload encode failed")
		return
	}
	if err := s.bcast.SendToPlayer(playerID, msg); err != nil && err != ws.ErrConnectionNotFound {
		s.logger.Warn().Err(err).Str("player_id", playerID.String()).Str("type", msgType).Msg("send failed")
	}
}

func (s *Service) broadcast(matchID uuid.UUID, msgType string, payload any) {
	msg, err := envelope(msgType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("type", msgType).Msg("payload encode failed")
		return
	}
	if err := s.bcast.BroadcastToMatch(matchID, msg); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Str("type", msgType).Msg("broadcast failed")
	}
}

func envelope(msgType string, payload any) (ws.Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ws.Message{}, err
	}
	return ws.Message{Type: msgType, Payload: raw}, nil
}

func playerInfo(p *Player) ws.PlayerInfo {
	info := ws.PlayerInfo{
		PlayerID: p.ID.String(),
		Name:     p.Name,
		Bot:      p.Bot,
	}
	if p.Rating != nil {
		r := *p.Rating
		info.Rating = &r
	}
	return info
}

func handPayload(p *Player) []ws.RegionCard {
	cards := make([]ws.RegionCard, len(p.Hand))
	for i, c := range p.Hand {
		cards[i] = ws.RegionCard{
			Region: c.Country.ID,
			Name:   c.Country.Name,
			Played: c.Played,
		}
	}
	return cards
}
