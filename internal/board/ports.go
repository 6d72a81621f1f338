package board

import "sync"

// Container receives the rendered grid markup. Each call replaces the
// previous content.
type Container interface {
	SetHTML(html string)
}

// Selector is a control holding a single string value.
type Selector interface {
	Value() string
	// SetValue changes the value without notifying change handlers.
	SetValue(v string)
	OnChange(fn func())
}

// Button is a control that can be clicked.
type Button interface {
	OnClick(fn func())
}

// Ports are the view elements the board reads from and renders into.
// A nil Container disables the board; any other nil port is not wired.
type Ports struct {
	Container  Container
	Difficulty Selector
	Stipend    Selector
	Sort       Selector
	Reset      Button
}

// MemoryContainer is an in-memory Container.
type MemoryContainer struct {
	mu   sync.RWMutex
	html string
	sets int
}

// NewMemoryContainer creates an empty MemoryContainer.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{}
}

func (c *MemoryContainer) SetHTML(html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.html = html
	c.sets++
}

// HTML returns the current content.
func (c *MemoryContainer) HTML() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.html
}

// Updates returns how many times the content was replaced.
func (c *MemoryContainer) Updates() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sets
}

// MemorySelector is an in-memory Selector.
type MemorySelector struct {
	mu       sync.Mutex
	value    string
	handlers []func()
}

// NewMemorySelector creates a selector holding initial.
func NewMemorySelector(initial string) *MemorySelector {
	return &MemorySelector{value: initial}
}

func (s *MemorySelector) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *MemorySelector) SetValue(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
}

func (s *MemorySelector) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Change sets the value and runs the change handlers, like a user
// picking an option.
func (s *MemorySelector) Change(v string) {
	s.mu.Lock()
	s.value = v
	handlers := append([]func(){}, s.handlers...)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Handlers returns the number of registered change handlers.
func (s *MemorySelector) Handlers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// MemoryButton is an in-memory Button.
type MemoryButton struct {
	mu       sync.Mutex
	handlers []func()
}

// NewMemoryButton creates a button with no handlers.
func NewMemoryButton() *MemoryButton {
	return &MemoryButton{}
}

func (b *MemoryButton) OnClick(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Click runs the click handlers.
func (b *MemoryButton) Click() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Handlers returns the number of registered click handlers.
func (b *MemoryButton) Handlers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
