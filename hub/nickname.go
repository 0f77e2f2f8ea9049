package hub

import (
	"sort"
	"strings"
)

// AnonymousNickname the sentinel display name for clients without an
// assigned nickname
const AnonymousNickname = "Anonymous"

// nicknameRegistry maps client IDs to display nicknames. A plain associative
// back-reference: entries are removed synchronously with client removal by
// the owning hub, never left dangling. Not safe for concurrent use on its
// own.
type nicknameRegistry struct {
	byClientID map[string]string
}

func newNicknameRegistry() *nicknameRegistry {
	return &nicknameRegistry{byClientID: make(map[string]string)}
}

// isTaken case-insensitive membership test against all assigned nicknames
func (r *nicknameRegistry) isTaken(candidate string) bool {
	folded := strings.ToLower(strings.TrimSpace(candidate))
	for _, name := range r.byClientID {
		if strings.ToLower(name) == folded {
			return true
		}
	}
	return false
}

// assign record the client to nickname mapping. The caller must have already
// validated the name's format and uniqueness.
func (r *nicknameRegistry) assign(clientID, nickname string) {
	r.byClientID[clientID] = strings.TrimSpace(nickname)
}

// resolve the assigned nickname, or the anonymous sentinel if none
func (r *nicknameRegistry) resolve(clientID string) string {
	if name, ok := r.byClientID[clientID]; ok {
		return name
	}
	return AnonymousNickname
}

// assigned the assigned nickname if any
func (r *nicknameRegistry) assigned(clientID string) (string, bool) {
	name, ok := r.byClientID[clientID]
	return name, ok
}

// revoke idempotently remove the mapping
func (r *nicknameRegistry) revoke(clientID string) {
	delete(r.byClientID, clientID)
}

// allNames snapshot of all assigned display names, sorted for stable output
func (r *nicknameRegistry) allNames() []string {
	names := make([]string, 0, len(r.byClientID))
	for _, name := range r.byClientID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
