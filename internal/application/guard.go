package application

import "voice-tutor/internal/domain"

// sendGuard hands out one send per session. The settle timer and the
// recognizer's ended event both race for it; the loser finds it spent.
type sendGuard struct {
	session domain.SessionID
	spent   bool
}

func (g *sendGuard) arm(session domain.SessionID) {
	g.session = session
	g.spent = false
}

func (g *sendGuard) claim(session domain.SessionID) bool {
	if g.session != session || g.spent {
		return false
	}
	g.spent = true
	return true
}
