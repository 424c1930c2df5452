package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/docexec/code"
)

// ErrEngineExists is returned when registering a language or alias twice.
var ErrEngineExists = errors.New("engine already registered")

// Registry manages engine instances by language.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]code.Engine
	aliases map[string]string
}

// NewRegistry creates a new engine registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]code.Engine),
		aliases: make(map[string]string),
	}
}

// Register adds eng under language and every alias.
func (r *Registry) Register(language string, eng code.Engine, aliases ...string) error {
	if eng == nil {
		return fmt.Errorf("engine is nil")
	}
	language = normalize(language)
	if language == "" {
		return fmt.Errorf("language is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(language) {
		return fmt.Errorf("%w: %s", ErrEngineExists, language)
	}
	for _, a := range aliases {
		if a = normalize(a); a == language || r.taken(a) {
			return fmt.Errorf("%w: %s", ErrEngineExists, a)
		}
	}

	r.engines[language] = eng
	for _, a := range aliases {
		r.aliases[normalize(a)] = language
	}
	return nil
}

// Unregister removes language and its aliases.
func (r *Registry) Unregister(language string) {
	language = normalize(language)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, language)
	for a, target := range r.aliases {
		if target == language {
			delete(r.aliases, a)
		}
	}
}

// Resolve implements code.EngineResolver.
func (r *Registry) Resolve(language string) (code.Engine, bool) {
	language = normalize(language)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[language]; ok {
		language = target
	}
	eng, ok := r.engines[language]
	return eng, ok
}

// Languages returns every registered language and alias, sorted for
// deterministic output.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.engines)+len(r.aliases))
	for l := range r.engines {
		out = append(out, l)
	}
	for a := range r.aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) taken(name string) bool {
	_, engine := r.engines[name]
	_, alias := r.aliases[name]
	return engine || alias
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
