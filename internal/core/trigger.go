package core

// Event kinds the external dispatcher sends. The executor itself never
// evaluates triggers; the CLI and server consult Matches before invoking it.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
)

// Matches reports whether an event kind dispatches this pipeline.
// A pipeline with no "on" list runs on every event.
func (p *Pipeline) Matches(event string) bool {
	if len(p.On) == 0 {
		return true
	}
	for _, e := range p.On {
		if e == event {
			return true
		}
	}
	return false
}
