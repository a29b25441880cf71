package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
	"github.com/Rocketman2178/kairo-platform/internal/matching"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/internal/waitlist"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// Engine is the registration assistant: it accumulates family preferences
// across turns, drives the matching pipeline once enough signal exists, and
// assembles each response from the outcome.
type Engine struct {
	matcher  *matching.Engine
	catalog  catalog.Repository
	waitlist *waitlist.Service
	store    *HistoryStore
	phraser  *Phraser
	logger   *logging.Logger
	metrics  *metrics.MatchingMetrics

	now func() time.Time
}

var _ Service = (*Engine)(nil)

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithEngineClock pins the engine clock for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithEngineMetrics attaches turn observability.
func WithEngineMetrics(m *metrics.MatchingMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine wires the assistant. The waitlist service may be nil, in which
// case waitlist intents degrade to an optimistic confirmation.
func NewEngine(matcher *matching.Engine, repo catalog.Repository, wl *waitlist.Service, store *HistoryStore, phraser *Phraser, logger *logging.Logger, opts ...EngineOption) *Engine {
	if matcher == nil {
		panic("conversation: matching engine required")
	}
	if repo == nil {
		panic("conversation: catalog repository required")
	}
	if store == nil {
		panic("conversation: history store required")
	}
	if phraser == nil {
		panic("conversation: phraser required")
	}
	if logger == nil {
		panic("conversation: logger required")
	}
	e := &Engine{
		matcher:  matcher,
		catalog:  repo,
		waitlist: wl,
		store:    store,
		phraser:  phraser,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartConversation opens a conversation. When the request carries an intro
// message it is processed as the first turn; otherwise the assistant greets.
func (e *Engine) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	if req.OrgID == "" {
		return nil, fmt.Errorf("conversation: orgId is required")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = NewConversationID()
	}

	snap := &conversationSnapshot{
		OrgID: req.OrgID,
		State: StateGreeting,
	}

	if strings.TrimSpace(req.Intro) != "" {
		return e.processTurn(ctx, conversationID, snap, MessageRequest{
			OrgID:          req.OrgID,
			ConversationID: conversationID,
			Message:        req.Intro,
		})
	}

	msg, quickReplies := e.phraser.Phrase(ctx, situation{State: StateGreeting})
	resp := &Response{
		ConversationID: conversationID,
		State:          StateGreeting,
		Message:        msg,
		QuickReplies:   quickReplies,
		Timestamp:      e.now().UTC(),
	}
	e.persist(ctx, conversationID, snap, nil, resp)
	return resp, nil
}

// ProcessMessage handles one user turn. An unknown conversation id starts a
// fresh conversation rather than failing: Redis state expires after a day
// and families come back.
func (e *Engine) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	if req.ConversationID == "" {
		return nil, fmt.Errorf("conversation: conversationId is required")
	}

	snap, err := e.store.LoadSnapshot(ctx, req.ConversationID)
	if err != nil {
		e.logger.Error("failed to load conversation snapshot", "conversation_id", req.ConversationID, "error", err)
		return e.errorResponse(ctx, req.ConversationID), nil
	}
	if snap == nil {
		snap = &conversationSnapshot{
			OrgID: req.OrgID,
			State: StateGreeting,
		}
	}
	if snap.OrgID == "" {
		snap.OrgID = req.OrgID
	}

	return e.processTurn(ctx, req.ConversationID, snap, req)
}

// GetHistory returns the user-visible transcript.
func (e *Engine) GetHistory(ctx context.Context, conversationID string) ([]Message, error) {
	history, err := e.store.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == ChatRoleSystem {
			continue
		}
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

func (e *Engine) processTurn(ctx context.Context, conversationID string, snap *conversationSnapshot, req MessageRequest) (*Response, error) {
	started := e.now()

	programs, err := e.catalog.ListPrograms(ctx, snap.OrgID)
	if err != nil {
		e.logger.Error("failed to list programs", "org_id", snap.OrgID, "error", err)
		return e.errorResponse(ctx, conversationID), nil
	}

	extracted := ExtractPreferences(req.Message, programs)
	snap.Prefs = snap.Prefs.Merge(extracted)
	if req.SelectedSessionID != "" {
		snap.Prefs.SelectedSessionID = req.SelectedSessionID
	}
	if req.JoinWaitlist {
		snap.Prefs.WantsWaitlist = true
	}

	resp := e.assemble(ctx, conversationID, snap, req)

	e.persist(ctx, conversationID, snap, &req, resp)
	e.metrics.ObserveTurnLatency(string(resp.State), e.now().Sub(started).Seconds())
	return resp, nil
}

// assemble runs the state machine for one turn and mutates the snapshot to
// its next state.
func (e *Engine) assemble(ctx context.Context, conversationID string, snap *conversationSnapshot, req MessageRequest) *Response {
	prefs := &snap.Prefs

	// Waitlist intent short-circuits the search pipeline entirely.
	if prefs.WantsWaitlist {
		if sessionID := prefs.waitlistTarget(); sessionID != "" {
			return e.confirmWaitlist(ctx, conversationID, snap, sessionID)
		}
		// Without a target session the intent stays pending until a
		// specific session has been discussed.
		prefs.WantsWaitlist = false
	}

	// Direct selection bypasses search. The id is consumed whether or not
	// the lookup succeeds so a stale id cannot wedge the conversation.
	if prefs.SelectedSessionID != "" {
		sessionID := prefs.SelectedSessionID
		prefs.SelectedSessionID = ""
		return e.confirmSelection(ctx, conversationID, snap, sessionID)
	}

	// Payment progression for an already-confirmed selection.
	switch snap.State {
	case StateConfirmingSelection:
		if isAffirmative(req.Message) {
			snap.State = StateCollectingPayment
			return e.respond(ctx, conversationID, snap, situation{
				State:     StateCollectingPayment,
				ChildName: prefs.ChildName,
			}, nil)
		}
	case StateCollectingPayment:
		if isAffirmative(req.Message) {
			snap.State = StateProcessingPayment
			return e.respond(ctx, conversationID, snap, situation{
				State:     StateProcessingPayment,
				ChildName: prefs.ChildName,
			}, nil)
		}
	case StateProcessingPayment:
		// The payment hand-off is external; the next turn reports the
		// outcome as confirmed.
		snap.State = StateConfirmed
		return e.respond(ctx, conversationID, snap, situation{
			State:     StateConfirmed,
			ChildName: prefs.ChildName,
		}, &MatchPayload{})
	}

	if missing := prefs.missingChildFields(); len(missing) > 0 {
		snap.State = StateCollectingChildInfo
		return e.respond(ctx, conversationID, snap, situation{
			State:       StateCollectingChildInfo,
			ChildName:   prefs.ChildName,
			ChildAge:    prefs.ChildAge,
			MissingInfo: missing,
		}, nil)
	}
	if missing := prefs.missingPreferenceFields(); len(missing) > 0 {
		snap.State = StateCollectingPreferences
		return e.respond(ctx, conversationID, snap, situation{
			State:       StateCollectingPreferences,
			ChildName:   prefs.ChildName,
			ChildAge:    prefs.ChildAge,
			Program:     prefs.Program,
			MissingInfo: missing,
		}, nil)
	}

	return e.search(ctx, conversationID, snap)
}

// search runs exact resolution, bounded search, and fallbacks per the
// accumulated preferences.
func (e *Engine) search(ctx context.Context, conversationID string, snap *conversationSnapshot) *Response {
	prefs := &snap.Prefs

	resolved, err := e.matcher.ResolveRequested(ctx, matching.ResolveRequest{
		OrgID:    snap.OrgID,
		ChildAge: prefs.ChildAge,
		Days:     prefs.Days,
		Time:     prefs.Time,
		Program:  prefs.Program,
		Location: prefs.Location,
	})
	if err != nil {
		e.logger.Error("exact-match resolution failed", "conversation_id", conversationID, "error", err)
		return e.errorResponse(ctx, conversationID)
	}

	if resolved.Found && resolved.Issue != matching.IssueNone {
		return e.showUnavailable(ctx, conversationID, snap, resolved)
	}

	views, err := e.matcher.FindMatches(ctx, matching.SearchRequest{
		OrgID:    snap.OrgID,
		ChildAge: prefs.ChildAge,
		Days:     prefs.Days,
		Time:     prefs.Time,
		Program:  prefs.Program,
		City:     prefs.City,
	})
	if err != nil {
		e.logger.Error("matching search failed", "conversation_id", conversationID, "error", err)
		return e.errorResponse(ctx, conversationID)
	}

	match := &MatchPayload{Recommendations: views}
	if len(views) == 0 {
		broader, err := e.matcher.FindBroaderMatches(ctx, matching.SearchRequest{
			OrgID:    snap.OrgID,
			ChildAge: prefs.ChildAge,
			Days:     prefs.Days,
		})
		if err != nil {
			e.logger.Error("broader search failed", "conversation_id", conversationID, "error", err)
			return e.errorResponse(ctx, conversationID)
		}
		match.Recommendations = broader
		match.RelaxedSearch = true
	}

	snap.State = StateShowingRecommendations
	return e.respond(ctx, conversationID, snap, situation{
		State:     StateShowingRecommendations,
		ChildName: prefs.ChildName,
		ChildAge:  prefs.ChildAge,
		Program:   prefs.Program,
		Match:     match,
	}, match)
}

// showUnavailable reports why the specifically requested session cannot be
// booked and offers scored alternatives.
func (e *Engine) showUnavailable(ctx context.Context, conversationID string, snap *conversationSnapshot, resolved matching.ResolveResult) *Response {
	prefs := &snap.Prefs
	prefs.LastRequestedSessionID = resolved.Session.SessionID

	altReq := matching.AlternativeRequest{
		OrgID:    snap.OrgID,
		ChildAge: prefs.ChildAge,
		Program:  prefs.Program,
		Days:     prefs.Days,
		Time:     prefs.Time,
	}
	if raw := resolved.RawSession(); raw != nil {
		altReq.LocationID = raw.Location.ID
	}

	alts, err := e.matcher.ScoreAlternatives(ctx, altReq)
	if err != nil {
		e.logger.Error("alternative scoring failed", "conversation_id", conversationID, "error", err)
		// The unavailable session is still worth reporting on its own.
		alts = matching.AlternativesResult{RecommendWaitlist: true}
	}

	match := &MatchPayload{
		RequestedSession:  resolved.Session,
		SessionIssue:      resolved.Issue,
		Alternatives:      alts.Alternatives,
		RecommendWaitlist: alts.RecommendWaitlist,
	}
	snap.State = StateShowingUnavailableSession
	return e.respond(ctx, conversationID, snap, situation{
		State:     StateShowingUnavailableSession,
		ChildName: prefs.ChildName,
		ChildAge:  prefs.ChildAge,
		Program:   prefs.Program,
		Match:     match,
	}, match)
}

// confirmSelection resolves a directly selected session by id.
func (e *Engine) confirmSelection(ctx context.Context, conversationID string, snap *conversationSnapshot, sessionID string) *Response {
	view, err := e.matcher.SessionByID(ctx, sessionID)
	if err != nil {
		e.logger.Warn("selected session not found", "conversation_id", conversationID, "session_id", sessionID, "error", err)
		return e.errorResponse(ctx, conversationID)
	}

	snap.Prefs.LastRequestedSessionID = view.SessionID
	match := &MatchPayload{SelectedSession: view}
	snap.State = StateConfirmingSelection
	return e.respond(ctx, conversationID, snap, situation{
		State:     StateConfirmingSelection,
		ChildName: snap.Prefs.ChildName,
		Match:     match,
	}, match)
}

// confirmWaitlist joins the waitlist and reports the position. Registrar
// failures already degrade inside the waitlist service.
func (e *Engine) confirmWaitlist(ctx context.Context, conversationID string, snap *conversationSnapshot, sessionID string) *Response {
	position := 1
	if e.waitlist != nil {
		confirmation := e.waitlist.Join(ctx, waitlist.JoinRequest{
			OrgID:     snap.OrgID,
			SessionID: sessionID,
		})
		position = confirmation.Position
	}

	snap.Prefs.WantsWaitlist = false
	match := &MatchPayload{WaitlistPosition: position}
	snap.State = StateConfirmed
	return e.respond(ctx, conversationID, snap, situation{
		State:     StateConfirmed,
		ChildName: snap.Prefs.ChildName,
		Match:     match,
	}, match)
}

func (e *Engine) respond(ctx context.Context, conversationID string, snap *conversationSnapshot, sit situation, match *MatchPayload) *Response {
	msg, quickReplies := e.phraser.Phrase(ctx, sit)
	return &Response{
		ConversationID: conversationID,
		State:          snap.State,
		Message:        msg,
		QuickReplies:   quickReplies,
		Match:          match,
		Timestamp:      e.now().UTC(),
	}
}

// errorResponse is the single friendly-failure exit. The stored state is not
// advanced, so the next turn retries from where the conversation was.
func (e *Engine) errorResponse(ctx context.Context, conversationID string) *Response {
	msg, quickReplies := e.phraser.Phrase(ctx, situation{State: StateError})
	return &Response{
		ConversationID: conversationID,
		State:          StateError,
		Message:        msg,
		QuickReplies:   quickReplies,
		Timestamp:      e.now().UTC(),
	}
}

// persist saves the snapshot and transcript. Storage failures are logged and
// swallowed: losing a turn of context beats failing the turn.
func (e *Engine) persist(ctx context.Context, conversationID string, snap *conversationSnapshot, req *MessageRequest, resp *Response) {
	if resp.State != StateError {
		if err := e.store.SaveSnapshot(ctx, conversationID, snap); err != nil {
			e.logger.Error("failed to save conversation snapshot", "conversation_id", conversationID, "error", err)
		}
	}

	history, err := e.store.LoadHistory(ctx, conversationID)
	if err != nil {
		e.logger.Error("failed to load history for append", "conversation_id", conversationID, "error", err)
		return
	}
	if req != nil && strings.TrimSpace(req.Message) != "" {
		history = append(history, ChatMessage{Role: ChatRoleUser, Content: req.Message})
	}
	history = append(history, ChatMessage{Role: ChatRoleAssistant, Content: resp.Message})
	if err := e.store.SaveHistory(ctx, conversationID, history); err != nil {
		e.logger.Error("failed to save history", "conversation_id", conversationID, "error", err)
	}
}

func (p *PreferenceSet) waitlistTarget() string {
	if p.SelectedSessionID != "" {
		return p.SelectedSessionID
	}
	return p.LastRequestedSessionID
}

func (p *PreferenceSet) missingChildFields() []string {
	var missing []string
	if p.ChildName == "" {
		missing = append(missing, "name")
	}
	if p.ChildAge == 0 {
		missing = append(missing, "age")
	}
	return missing
}

func (p *PreferenceSet) missingPreferenceFields() []string {
	var missing []string
	if p.Program == "" {
		missing = append(missing, "activity")
	}
	if len(p.Days) == 0 {
		missing = append(missing, "days")
	}
	return missing
}

func isAffirmative(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "yes", "yes!", "yep", "yeah", "sure", "ok", "okay", "book it", "yes, book it", "confirm", "sounds good":
		return true
	}
	return strings.HasPrefix(text, "yes ") || strings.HasPrefix(text, "yes,")
}
