package core

type Role string

const (
	RoleUnknown  Role = "unknown"
	RoleClient   Role = "client"
	RoleMerchant Role = "merchant"
)

type Session struct {
	ID       string
	Role     Role
	ClientID string
}

// Registry tracks live real-time sessions. At most one session holds the
// merchant role at a time; the last registration wins. Like the store, all
// mutation is funneled through the engine.
type Registry struct {
	sessions map[string]*Session
	byClient map[string]string
	merchant string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byClient: make(map[string]string),
	}
}

func (r *Registry) Register(sessionID string) *Session {
	s := &Session{ID: sessionID, Role: RoleUnknown}
	r.sessions[sessionID] = s
	return s
}

// BindClient attaches a logical client identifier to a session so targeted
// delivery can find it even if the caller only knows the client id.
func (r *Registry) BindClient(sessionID, clientID string) bool {
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	if s.ClientID != "" {
		delete(r.byClient, s.ClientID)
	}
	s.ClientID = clientID
	if s.Role == RoleUnknown {
		s.Role = RoleClient
	}
	if clientID != "" {
		r.byClient[clientID] = sessionID
	}
	return true
}

// PromoteToMerchant makes the session the merchant console. A previously
// registered merchant session is demoted back to a plain client.
func (r *Registry) PromoteToMerchant(sessionID string) (previous string, ok bool) {
	s, found := r.sessions[sessionID]
	if !found {
		return "", false
	}
	previous = r.merchant
	if previous != "" && previous != sessionID {
		if prev, exists := r.sessions[previous]; exists {
			prev.Role = RoleClient
		}
	}
	s.Role = RoleMerchant
	r.merchant = sessionID
	return previous, true
}

func (r *Registry) MerchantID() (string, bool) {
	if r.merchant == "" {
		return "", false
	}
	return r.merchant, true
}

// Resolve maps a logical client id (or a raw session id) to a live session.
func (r *Registry) Resolve(logicalID string) (string, bool) {
	if sessionID, ok := r.byClient[logicalID]; ok {
		return sessionID, true
	}
	if _, ok := r.sessions[logicalID]; ok {
		return logicalID, true
	}
	return "", false
}

func (r *Registry) Remove(sessionID string) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	if s.ClientID != "" {
		delete(r.byClient, s.ClientID)
	}
	if r.merchant == sessionID {
		r.merchant = ""
	}
	delete(r.sessions, sessionID)
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
