package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Rocketman2178/kairo-platform/internal/matching"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

const defaultPhrasingTimeout = 8 * time.Second

const phrasingSystemPrompt = `You are a warm, concise registration assistant for youth activity programs.
You will receive a JSON summary of the conversation situation. Write a short, friendly message (2-4 sentences)
for the parent that covers the summary. Never invent sessions, prices, or availability that are not in the summary.
Do not mention JSON or internal field names.`

// situation is the structured summary handed to the phrasing model.
type situation struct {
	State        State         `json:"state"`
	ChildName    string        `json:"childName,omitempty"`
	ChildAge     int           `json:"childAge,omitempty"`
	Program      string        `json:"program,omitempty"`
	Match        *MatchPayload `json:"match,omitempty"`
	MissingInfo  []string      `json:"missingInfo,omitempty"`
	ErrorContext string        `json:"errorContext,omitempty"`
}

// Phraser turns a structured turn outcome into user-facing text. The LLM
// call is bounded by a timeout and every state has a deterministic template
// behind it, so a slow or failing provider can never hang or break a turn.
type Phraser struct {
	llm     LLMClient
	modelID string
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.MatchingMetrics
}

// NewPhraser builds a phraser. A nil llm means templates only, which is the
// supported configuration for tests and offline development.
func NewPhraser(llm LLMClient, modelID string, timeout time.Duration, logger *logging.Logger, m *metrics.MatchingMetrics) *Phraser {
	if logger == nil {
		panic("conversation: phraser logger required")
	}
	if timeout <= 0 {
		timeout = defaultPhrasingTimeout
	}
	return &Phraser{
		llm:     llm,
		modelID: modelID,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Phrase produces the assistant message and quick replies for a turn.
func (p *Phraser) Phrase(ctx context.Context, sit situation) (string, []string) {
	template, quickReplies := fallbackPhrasing(sit)
	if p.llm == nil {
		return template, quickReplies
	}

	summary, err := json.Marshal(sit)
	if err != nil {
		p.logger.Error("failed to encode phrasing situation", "error", err)
		return template, quickReplies
	}

	llmCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.llm.Complete(llmCtx, LLMRequest{
		Model:       p.modelID,
		System:      []string{phrasingSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: string(summary)}},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		p.logger.Warn("phrasing degraded to template",
			"state", string(sit.State),
			"error", err,
		)
		p.metrics.ObserveLLMFallback()
		return template, quickReplies
	}
	return strings.TrimSpace(resp.Text), quickReplies
}

// fallbackPhrasing is the deterministic wording used when no LLM is wired or
// the provider fails. Raw technical errors never reach the user.
func fallbackPhrasing(sit situation) (string, []string) {
	child := sit.ChildName
	if child == "" {
		child = "your child"
	}

	switch sit.State {
	case StateGreeting:
		return "Hi! I can help you find and register for activities. Tell me about your child and what they'd like to do.",
			[]string{"Find a class"}

	case StateCollectingChildInfo:
		if len(sit.MissingInfo) > 0 {
			return fmt.Sprintf("Great! To find the right fit I still need your child's %s.", strings.Join(sit.MissingInfo, " and ")), nil
		}
		return "Tell me a bit more about your child so I can find the right fit.", nil

	case StateCollectingPreferences:
		if len(sit.MissingInfo) > 0 {
			return fmt.Sprintf("Almost there. Which %s would work for you?", strings.Join(sit.MissingInfo, " and ")), nil
		}
		return "Which activity and days would work for your family?", nil

	case StateShowingRecommendations:
		if sit.Match != nil && sit.Match.RelaxedSearch {
			return fmt.Sprintf("I couldn't find an exact match, but here are some other options for %s on your preferred days:%s",
				child, summarizeSessions(sit.Match.Recommendations)), []string{"Join waitlist", "See other days"}
		}
		if sit.Match != nil {
			return fmt.Sprintf("Here's what I found for %s:%s Reply with the option you'd like to book.",
				child, summarizeSessions(sit.Match.Recommendations)), nil
		}
		return "Here's what I found. Reply with the option you'd like to book.", nil

	case StateShowingUnavailableSession:
		msg := "That session isn't available as requested."
		if sit.Match != nil {
			switch sit.Match.SessionIssue {
			case matching.IssueFull:
				msg = "That session is currently full."
			case matching.IssueNoLocationMatch:
				if sit.Match.RequestedSession != nil {
					msg = fmt.Sprintf("That program isn't offered at your preferred location, but it does run at %s.",
						sit.Match.RequestedSession.LocationName)
				} else {
					msg = "That program isn't offered at your preferred location."
				}
			}
			if len(sit.Match.Alternatives) > 0 {
				msg += " Here are some close alternatives:" + summarizeAlternatives(sit.Match.Alternatives)
			}
			if sit.Match.RecommendWaitlist {
				msg += " Would you like to join the waitlist?"
				return msg, []string{"Join waitlist", "See other options"}
			}
		}
		return msg, []string{"See other options"}

	case StateConfirmingSelection:
		if sit.Match != nil && sit.Match.SelectedSession != nil {
			s := sit.Match.SelectedSession
			return fmt.Sprintf("Great choice! %s on %ss at %s, %s. Shall I reserve the spot for %s?",
				s.ProgramName, s.DayOfWeek, s.StartTime, s.LocationName, child), []string{"Yes, book it", "Go back"}
		}
		return fmt.Sprintf("Shall I reserve that spot for %s?", child), []string{"Yes, book it", "Go back"}

	case StateCollectingPayment:
		return fmt.Sprintf("Spot reserved for %s! We'll send a secure payment link to finish the registration. Ready?", child),
			[]string{"Yes, send it", "Go back"}

	case StateProcessingPayment:
		return "One moment while we process the payment.", nil

	case StateConfirmed:
		if sit.Match != nil && sit.Match.WaitlistPosition > 0 {
			return fmt.Sprintf("You're on the waitlist at position %d. We'll reach out the moment a spot opens up.",
				sit.Match.WaitlistPosition), nil
		}
		return "You're all set! We'll send the details shortly.", nil

	case StateError:
		return "Sorry, something went wrong on our end. Let's try that again.",
			[]string{"Try again", "Start over"}
	}

	return "How can I help with your registration?", nil
}

func summarizeSessions(views []matching.SessionView) string {
	var sb strings.Builder
	for i, v := range views {
		sb.WriteString(fmt.Sprintf("\n%d. %s, %ss at %s, %s (%d spots left)",
			i+1, v.ProgramName, v.DayOfWeek, v.StartTime, v.LocationName, v.SpotsRemaining))
	}
	return sb.String()
}

func summarizeAlternatives(alts []matching.AlternativeCandidate) string {
	var sb strings.Builder
	for i, a := range alts {
		v := a.Session
		sb.WriteString(fmt.Sprintf("\n%d. %s, %ss at %s, %s",
			i+1, v.ProgramName, v.DayOfWeek, v.StartTime, v.LocationName))
	}
	return sb.String()
}
