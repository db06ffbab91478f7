package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/inboxtally/internal/cache"
	"github.com/teemow/inboxtally/internal/llm"
)

// fakeProvider answers every prompt with reply and records what it was asked.
// Prompts listed in failFor fail like an out-of-memory model.
type fakeProvider struct {
	reply    string
	err      error
	failFor  map[string]bool
	delay    time.Duration
	prompts  []string
	settings []llm.ModelSettings
}

func (p *fakeProvider) Complete(_ context.Context, prompt string, settings llm.ModelSettings) (llm.Completion, error) {
	p.prompts = append(p.prompts, prompt)
	p.settings = append(p.settings, settings)
	time.Sleep(p.delay)
	if p.err != nil || p.failFor[prompt] {
		err := p.err
		if err == nil {
			err = fmt.Errorf("%w: out of memory", llm.ErrCompletion)
		}
		return llm.Completion{}, err
	}
	return llm.Completion{Text: p.reply, Model: "fake", Duration: time.Millisecond}, nil
}

// brokenStore fails every call the way an unreachable Redis does.
type brokenStore struct {
	gets, sets int
}

func (s *brokenStore) Get(context.Context, string) (string, bool, error) {
	s.gets++
	return "", false, fmt.Errorf("%w: dial tcp: connection refused", cache.ErrUnavailable)
}

func (s *brokenStore) Set(context.Context, string, string, time.Duration) error {
	s.sets++
	return fmt.Errorf("%w: dial tcp: connection refused", cache.ErrUnavailable)
}
