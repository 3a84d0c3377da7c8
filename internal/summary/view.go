package summary

import "sync"

// View keeps the conversation last handed to it together with the summary
// computed from it, so a caller can redisplay or regenerate it.
type View struct {
	analyzer *Analyzer

	mu      sync.Mutex
	history []Message
	last    *Summary
}

// NewView returns a View backed by analyzer.
func NewView(analyzer *Analyzer) *View {
	return &View{analyzer: analyzer}
}

// SetHistory replaces the conversation. The previous summary is kept until
// the next Generate.
func (v *View) SetHistory(msgs []Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = append([]Message(nil), msgs...)
}

// Append adds messages to the conversation.
func (v *View) Append(msgs ...Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = append(v.history, msgs...)
}

// History returns a copy of the conversation.
func (v *View) History() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Message(nil), v.history...)
}

// Generate analyzes the current conversation and remembers the result.
func (v *View) Generate() *Summary {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = v.analyzer.Analyze(v.history)
	return v.last
}

// Regenerate recomputes the summary from the current conversation.
func (v *View) Regenerate() *Summary {
	return v.Generate()
}

// Last returns the most recent summary, or nil before the first Generate.
func (v *View) Last() *Summary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}
