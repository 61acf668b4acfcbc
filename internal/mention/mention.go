// Package mention implements "@user" autocompletion for comment and reply
// inputs, and extraction of mentions from saved comment text.
//
// Offsets are counted in runes, not bytes.
package mention

import (
	"strings"
	"unicode"

	"propdocs/internal/domain/models/docsystem"
)

type State int

const (
	Idle State = iota
	Suggesting
)

func (s State) String() string {
	if s == Suggesting {
		return "suggesting"
	}
	return "idle"
}

// Key is a key press forwarded from a text input.
type Key string

const (
	KeyDown   Key = "down"
	KeyUp     Key = "up"
	KeyEnter  Key = "enter"
	KeyTab    Key = "tab"
	KeyEscape Key = "escape"
)

// Result is the outcome of HandleKey. When Handled is false the caller keeps
// the key for itself; Enter while idle means "submit".
type Result struct {
	Handled bool
	Text    string
	Caret   int
}

// Machine tracks one text input.
type Machine struct {
	users []docsystem.User

	state      State
	query      string
	start      int // offset of '@'
	end        int // caret when the query was read
	candidates []docsystem.User
	active     int
}

func New(users []docsystem.User) *Machine {
	return &Machine{users: users}
}

// SetUsers replaces the candidate directory and returns to idle.
func (m *Machine) SetUsers(users []docsystem.User) {
	m.users = users
	m.Dismiss()
}

func (m *Machine) State() State { return m.state }

// Query is the lowercased text typed after '@'.
func (m *Machine) Query() string { return m.query }

func (m *Machine) Candidates() []docsystem.User { return m.candidates }

func (m *Machine) ActiveIndex() int { return m.active }

// Active returns the highlighted candidate.
func (m *Machine) Active() (docsystem.User, bool) {
	if m.state != Suggesting || len(m.candidates) == 0 {
		return docsystem.User{}, false
	}
	return m.candidates[m.active], true
}

// Update re-reads the input after every text change. It looks backwards from
// the caret for '@'; if nothing but non-space runes sit between the two, the
// machine suggests users matching that span. Candidates are always recomputed.
func (m *Machine) Update(text string, caret int) {
	runes := []rune(text)
	caret = clampOffset(caret, len(runes))

	at := -1
	for i := caret - 1; i >= 0; i-- {
		if runes[i] == '@' {
			at = i
			break
		}
		if unicode.IsSpace(runes[i]) {
			break
		}
	}
	if at < 0 {
		m.Dismiss()
		return
	}

	m.state = Suggesting
	m.start = at
	m.end = caret
	m.query = strings.ToLower(string(runes[at+1 : caret]))
	m.candidates = Match(m.users, m.query)
	m.active = 0
}

// Next moves the highlight down, wrapping to the first candidate.
func (m *Machine) Next() {
	if n := len(m.candidates); m.state == Suggesting && n > 0 {
		m.active = (m.active + 1) % n
	}
}

// Prev moves the highlight up, wrapping to the last candidate.
func (m *Machine) Prev() {
	if n := len(m.candidates); m.state == Suggesting && n > 0 {
		m.active = (m.active - 1 + n) % n
	}
}

// Commit replaces "@query" with "@<handle> " for the highlighted candidate and
// returns the new text and caret. ok is false when nothing is highlighted.
func (m *Machine) Commit(text string) (string, int, bool) {
	user, ok := m.Active()
	if !ok {
		return text, 0, false
	}

	runes := []rune(text)
	start := clampOffset(m.start, len(runes))
	end := clampOffset(m.end, len(runes))
	if end < start {
		end = start
	}

	insert := []rune("@" + user.Handle() + " ")
	out := make([]rune, 0, len(runes)+len(insert))
	out = append(out, runes[:start]...)
	out = append(out, insert...)
	out = append(out, runes[end:]...)

	m.Dismiss()
	return string(out), start + len(insert), true
}

// Dismiss returns to idle without touching the text.
func (m *Machine) Dismiss() {
	m.state = Idle
	m.query = ""
	m.candidates = nil
	m.active = 0
}

// HandleKey applies a navigation key. Keys are only consumed while suggesting.
func (m *Machine) HandleKey(key Key, text string, caret int) Result {
	unhandled := Result{Text: text, Caret: caret}
	if m.state != Suggesting {
		return unhandled
	}

	switch key {
	case KeyDown:
		m.Next()
	case KeyUp:
		m.Prev()
	case KeyEnter, KeyTab:
		next, pos, ok := m.Commit(text)
		if !ok {
			return unhandled
		}
		return Result{Handled: true, Text: next, Caret: pos}
	case KeyEscape:
		m.Dismiss()
	default:
		return unhandled
	}
	return Result{Handled: true, Text: text, Caret: caret}
}

// Match returns users whose display name or handle contains query, ignoring case.
// An empty query matches everyone.
func Match(users []docsystem.User, query string) []docsystem.User {
	query = strings.ToLower(query)
	out := make([]docsystem.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.DisplayName), query) ||
			strings.Contains(strings.ToLower(u.Handle()), query) {
			out = append(out, u)
		}
	}
	return out
}

// Extract returns the distinct handles mentioned in text, in order of first
// appearance. A mention is '@' followed by a known handle that is not followed
// by a letter or digit; the longest matching handle wins.
func Extract(text string, users []docsystem.User) []string {
	handles := make([]string, 0, len(users))
	for _, u := range users {
		if h := u.Handle(); h != "" {
			handles = append(handles, h)
		}
	}

	runes := []rune(text)
	seen := make(map[string]bool)
	found := make([]string, 0)
	for i, r := range runes {
		if r != '@' {
			continue
		}
		rest := runes[i+1:]
		best := ""
		for _, h := range handles {
			hr := []rune(h)
			if len(hr) > len(rest) || len(hr) <= len([]rune(best)) {
				continue
			}
			if !strings.EqualFold(string(rest[:len(hr)]), h) {
				continue
			}
			if len(hr) < len(rest) && isWordRune(rest[len(hr)]) {
				continue
			}
			best = h
		}
		if best != "" && !seen[best] {
			seen[best] = true
			found = append(found, best)
		}
	}
	return found
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clampOffset(n, length int) int {
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}
