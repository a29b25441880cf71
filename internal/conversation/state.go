package conversation

// State is the conversation's position in the registration flow.
type State string

const (
	StateIdle                      State = "idle"
	StateGreeting                  State = "greeting"
	StateCollectingChildInfo       State = "collecting_child_info"
	StateCollectingPreferences     State = "collecting_preferences"
	StateShowingRecommendations    State = "showing_recommendations"
	StateShowingUnavailableSession State = "showing_unavailable_session"
	StateConfirmingSelection       State = "confirming_selection"
	StateCollectingPayment         State = "collecting_payment"
	StateProcessingPayment         State = "processing_payment"
	StateConfirmed                 State = "confirmed"
	StateError                     State = "error"
)

// Valid reports whether s is a member of the closed state set.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateGreeting, StateCollectingChildInfo, StateCollectingPreferences,
		StateShowingRecommendations, StateShowingUnavailableSession, StateConfirmingSelection,
		StateCollectingPayment, StateProcessingPayment, StateConfirmed, StateError:
		return true
	}
	return false
}
