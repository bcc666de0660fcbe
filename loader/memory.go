package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// maxMemoryRedirects bounds redirect chains registered with AddRedirect.
const maxMemoryRedirects = 10

type memoryEntry struct {
	content     []byte
	contentType string
	err         error
}

// Memory is a thread-safe in-memory loader for tests and embedding.
// It counts calls per specifier so tests can assert deduplication.
type Memory struct {
	mu        sync.RWMutex
	modules   map[specifier.Specifier]memoryEntry
	redirects map[specifier.Specifier]specifier.Specifier
	calls     map[specifier.Specifier]int
	delay     time.Duration
}

// NewMemory creates an empty in-memory loader.
func NewMemory() *Memory {
	return &Memory{
		modules:   make(map[specifier.Specifier]memoryEntry),
		redirects: make(map[specifier.Specifier]specifier.Specifier),
		calls:     make(map[specifier.Specifier]int),
	}
}

// Add registers a module. The media type is taken from the specifier's
// extension. Add panics if spec is not a valid absolute specifier.
func (m *Memory) Add(spec, content string) {
	m.AddWithContentType(spec, "", content)
}

// AddWithContentType registers a module together with the content type a
// server would report for it.
func (m *Memory) AddWithContentType(spec, contentType, content string) {
	s := specifier.MustParse(spec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[s] = memoryEntry{content: []byte(content), contentType: contentType}
}

// AddRedirect makes loads of from report the module at to.
func (m *Memory) AddRedirect(from, to string) {
	f, t := specifier.MustParse(from), specifier.MustParse(to)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirects[f] = t
}

// SetError makes loads of spec fail with err.
func (m *Memory) SetError(spec string, err error) {
	s := specifier.MustParse(spec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[s] = memoryEntry{err: err}
}

// SetDelay makes every load wait d before answering.
func (m *Memory) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Load returns the registered module, following registered redirects.
func (m *Memory) Load(ctx context.Context, spec specifier.Specifier) (*Response, error) {
	m.mu.Lock()
	m.calls[spec]++
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	final := spec
	for i := 0; ; i++ {
		next, ok := m.redirects[final]
		if !ok {
			break
		}
		if i == maxMemoryRedirects {
			return nil, fmt.Errorf("load %s: too many redirects", spec)
		}
		final = next
	}

	entry, ok := m.modules[final]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, final)
	}
	if entry.err != nil {
		return nil, entry.err
	}
	return &Response{
		Specifier: final,
		MediaType: specifier.DetectMediaType(final, entry.contentType),
		Content:   entry.content,
	}, nil
}

// Calls returns how many times spec was requested.
func (m *Memory) Calls(spec string) int {
	s := specifier.MustParse(spec)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[s]
}

// TotalCalls returns the number of Load calls across all specifiers.
func (m *Memory) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}
