package corpus

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Registry loads one corpus per language from "{dir}/{lang}.json" on first
// use and keeps it for the life of the process.
type Registry struct {
	dir             string
	defaultLanguage string

	mu      sync.Mutex
	corpora map[string]*Corpus
}

func NewRegistry(dir, defaultLanguage string) *Registry {
	return &Registry{
		dir:             dir,
		defaultLanguage: defaultLanguage,
		corpora:         make(map[string]*Corpus),
	}
}

// DefaultLanguage returns the language used when callers pass "".
func (r *Registry) DefaultLanguage() string {
	return r.defaultLanguage
}

// Add registers an already built corpus (used by tests and embedded data).
func (r *Registry) Add(c *Corpus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corpora[c.Language] = c
}

// Get returns the corpus for language, loading it if needed.
func (r *Registry) Get(language string) (*Corpus, error) {
	if language == "" {
		language = r.defaultLanguage
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.corpora[language]; ok {
		return c, nil
	}

	path := filepath.Join(r.dir, filepath.Base(language)+".json")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()

	c, err := Decode(language, f)
	if err != nil {
		return nil, err
	}
	r.corpora[language] = c
	log.Printf("Loaded corpus %s: %d books from %s", language, len(c.Books()), path)
	return c, nil
}

// GetOrDefault returns the corpus for language, falling back to the default
// language when that corpus cannot be loaded.
func (r *Registry) GetOrDefault(language string) (*Corpus, error) {
	c, err := r.Get(language)
	if err == nil || language == "" || language == r.defaultLanguage {
		return c, err
	}
	log.Printf("Corpus %s unavailable, falling back to %s: %v", language, r.defaultLanguage, err)
	return r.Get(r.defaultLanguage)
}

// Languages lists the corpus files available in the directory.
func (r *Registry) Languages() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		langs = append(langs, base[:len(base)-len(".json")])
	}
	return langs, nil
}

// SameBook compares book references across every loaded corpus, so a book
// queried by its name in one language matches an id stored from another.
func (r *Registry) SameBook(a, b string) bool {
	if a == b {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idA, okA := r.canonicalLocked(a)
	idB, okB := r.canonicalLocked(b)
	return okA && okB && idA == idB
}

// CanonicalID resolves a book id or name through the loaded corpora,
// preferring the default language.
func (r *Registry) CanonicalID(idOrName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canonicalLocked(idOrName)
}

func (r *Registry) canonicalLocked(idOrName string) (string, bool) {
	if c, ok := r.corpora[r.defaultLanguage]; ok {
		if id, found := c.CanonicalID(idOrName); found {
			return id, true
		}
	}
	for _, c := range r.corpora {
		if id, found := c.CanonicalID(idOrName); found {
			return id, true
		}
	}
	return "", false
}
