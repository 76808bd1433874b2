// Package session tracks conversation state: history, the resolved
// customer, the detected language, and allergy clearances.
package session

import (
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/apotek/apotek/internal/i18n"
)

// Session is one conversation with its full history and tracked state.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*ai.Message `json:"messages,omitempty"`
	State    State         `json:"state"`
}

// Summary is a session without its messages, for listings.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	UserID       string    `json:"user_id,omitempty"`
	Language     string    `json:"language,omitempty"`
}

// State is the slot memory carried across turns. A user ID mentioned once
// stays resolved for the rest of the conversation; a correction overwrites
// it. Allergy clearances are keyed by user and medication, so a clearance
// granted for one customer never carries over to another.
type State struct {
	UserID     string          `json:"user_id,omitempty"`
	Language   i18n.Language   `json:"language,omitempty"`
	Clearances map[string]bool `json:"clearances,omitempty"`
}

// clearanceKey joins user and medication with a separator neither can
// contain, so "user1"+"x" never collides with "user1x"+"".
func clearanceKey(userID, medication string) string {
	return userID + "\x00" + strings.ToLower(strings.TrimSpace(medication))
}

// GrantClearance records that an allergy check passed for this user and
// medication.
func (st *State) GrantClearance(userID, medication string) {
	if userID == "" || medication == "" {
		return
	}
	if st.Clearances == nil {
		st.Clearances = make(map[string]bool)
	}
	st.Clearances[clearanceKey(userID, medication)] = true
}

// Cleared reports whether an allergy check passed for this user and
// medication earlier in the conversation.
func (st *State) Cleared(userID, medication string) bool {
	return st.Clearances[clearanceKey(userID, medication)]
}

// Clone returns an independent copy of the state.
func (st State) Clone() State {
	out := st
	if st.Clearances != nil {
		out.Clearances = make(map[string]bool, len(st.Clearances))
		for k, v := range st.Clearances {
			out.Clearances[k] = v
		}
	}
	return out
}

// Summary projects the session into its listing form.
func (s *Session) Summary() Summary {
	return Summary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
		UserID:       s.State.UserID,
		Language:     string(s.State.Language),
	}
}
