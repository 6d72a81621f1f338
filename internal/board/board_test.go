package board

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/programs-board/internal/logger"
	"github.com/garyellow/programs-board/internal/metrics"
	"github.com/garyellow/programs-board/internal/program"
	"github.com/garyellow/programs-board/internal/source"
)

const listing = `[
	{"name":"Beta","contributors":5,"difficulty":"Intermediate","stipend":"$1000"},
	{"name":"Alpha","contributors":10,"difficulty":"Beginner","stipend":"N/A"},
	{"name":"Gamma","contributors":1,"difficulty":"Advanced","stipend":"Certificates & Perks"}
]`

type fakeSource struct {
	data  []byte
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.data, f.err
}

func (f *fakeSource) Kind() source.Kind { return "fake" }
func (f *fakeSource) String() string    { return "fake://programs" }

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	container  *MemoryContainer
	difficulty *MemorySelector
	stipend    *MemorySelector
	sort       *MemorySelector
	reset      *MemoryButton
}

func newFixture() *fixture {
	return &fixture{
		container:  NewMemoryContainer(),
		difficulty: NewMemorySelector(DefaultDifficulty),
		stipend:    NewMemorySelector(DefaultStipend),
		sort:       NewMemorySelector(DefaultSort),
		reset:      NewMemoryButton(),
	}
}

func (f *fixture) ports() Ports {
	return Ports{
		Container:  f.container,
		Difficulty: f.difficulty,
		Stipend:    f.stipend,
		Sort:       f.sort,
		Reset:      f.reset,
	}
}

func titles(t *testing.T, html string) []string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	var out []string
	doc.Find(".card-title").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestStart_LoadsWiresAndRenders(t *testing.T) {
	t.Parallel()

	f := newFixture()
	src := &fakeSource{data: []byte(listing)}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	b := New(src, f.ports(), Options{Metrics: m})

	assert.Equal(t, StateLoaded, b.Start(context.Background()))
	assert.Equal(t, StateLoaded, b.State())
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(t, f.container.HTML()))

	assert.Equal(t, 1, f.difficulty.Handlers())
	assert.Equal(t, 1, f.stipend.Handlers())
	assert.Equal(t, 1, f.sort.Handlers())
	assert.Equal(t, 1, f.reset.Handlers())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceFetchTotal.WithLabelValues("fake", "success")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.WorkingSetSize))
	assert.Equal(t, float64(StateLoaded), testutil.ToFloat64(m.BoardState))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RendersTotal.WithLabelValues(TriggerInitial)))
}

func TestStart_ControlsRerender(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := New(&fakeSource{data: []byte(listing)}, f.ports(), Options{})
	require.Equal(t, StateLoaded, b.Start(context.Background()))

	f.sort.Change("contributors")
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(t, f.container.HTML()))

	f.stipend.Change("yes")
	assert.Equal(t, []string{"Beta"}, titles(t, f.container.HTML()))

	f.difficulty.Change("advanced")
	assert.Equal(t, program.NoMatchHTML, f.container.HTML())

	f.reset.Click()
	assert.Equal(t, DefaultDifficulty, f.difficulty.Value())
	assert.Equal(t, DefaultStipend, f.stipend.Value())
	assert.Equal(t, DefaultSort, f.sort.Value())
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(t, f.container.HTML()))
}

func TestStart_SameControlsSameOutput(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := New(&fakeSource{data: []byte(listing)}, f.ports(), Options{})
	require.Equal(t, StateLoaded, b.Start(context.Background()))

	f.stipend.Change("no")
	first := f.container.HTML()
	b.Apply()
	assert.Equal(t, first, f.container.HTML())
}

func TestStart_HTTP500(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	var logs lockedBuffer
	var reports atomic.Int32
	f := newFixture()
	b := New(source.NewHTTPSource(srv.URL+"/data/programs.json", 5*time.Second), f.ports(), Options{
		Logger:      logger.NewWithWriter("info", &logs),
		ReportError: func(context.Context, error) { reports.Add(1) },
	})

	assert.Equal(t, StateFailed, b.Start(context.Background()))
	assert.Equal(t, program.FailedHTML, f.container.HTML())
	assert.Equal(t, 1, strings.Count(logs.String(), "Failed to load programs"))
	assert.Contains(t, logs.String(), "status=500")
	assert.Equal(t, int32(1), reports.Load())

	// Controls are not wired after a failure.
	assert.Zero(t, f.sort.Handlers())
	assert.Equal(t, program.FailedHTML, b.View(program.DefaultFilter()))
}

func TestStart_ParseFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := New(&fakeSource{data: []byte(`[{"name":`)}, f.ports(), Options{})

	assert.Equal(t, StateFailed, b.Start(context.Background()))
	assert.Equal(t, program.FailedHTML, f.container.HTML())
}

func TestStart_EmptyPayload(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{`[]`, `{"programs":[]}`} {
		f := newFixture()
		b := New(&fakeSource{data: []byte(payload)}, f.ports(), Options{})

		assert.Equal(t, StateLoaded, b.Start(context.Background()), payload)
		assert.Equal(t, program.EmptyHTML, f.container.HTML(), payload)
		assert.Zero(t, f.sort.Handlers(), payload)
		assert.Equal(t, program.EmptyHTML, b.View(program.DefaultFilter()), payload)
	}
}

func TestStart_NoContainer(t *testing.T) {
	t.Parallel()

	src := &fakeSource{data: []byte(listing)}
	b := New(src, Ports{Sort: NewMemorySelector(DefaultSort)}, Options{})

	assert.Equal(t, StateIdle, b.Start(context.Background()))
	assert.Zero(t, src.calls.Load())
}

func TestStart_OptionalPortsMissing(t *testing.T) {
	t.Parallel()

	container := NewMemoryContainer()
	b := New(&fakeSource{data: []byte(listing)}, Ports{Container: container}, Options{})

	assert.Equal(t, StateLoaded, b.Start(context.Background()))
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(t, container.HTML()))

	b.Reset()
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(t, container.HTML()))
}

func TestStart_FetchesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	src := &fakeSource{data: []byte(listing), gate: make(chan struct{})}
	b := New(src, f.ports(), Options{})

	var wg sync.WaitGroup
	states := make([]State, 8)
	for i := range states {
		wg.Go(func() {
			states[i] = b.Start(context.Background())
		})
	}

	// Let the first fetch begin, then release it.
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, s := range states {
		assert.Equal(t, StateLoaded, s)
	}

	assert.Equal(t, StateLoaded, b.Start(context.Background()))
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, f.sort.Handlers())
}

func TestStart_ShowsLoadingWhileFetching(t *testing.T) {
	t.Parallel()

	f := newFixture()
	src := &fakeSource{data: []byte(listing), gate: make(chan struct{})}
	b := New(src, f.ports(), Options{})

	done := make(chan State)
	go func() { done <- b.Start(context.Background()) }()

	require.Eventually(t, func() bool { return b.State() == StateLoading }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return f.container.HTML() == program.LoadingHTML }, time.Second, time.Millisecond)
	assert.Equal(t, program.LoadingHTML, b.View(program.DefaultFilter()))

	close(src.gate)
	assert.Equal(t, StateLoaded, <-done)
	assert.NotEqual(t, program.LoadingHTML, f.container.HTML())
}

func TestView(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := New(&fakeSource{data: []byte(listing)}, f.ports(), Options{})
	assert.Equal(t, program.LoadingHTML, b.View(program.DefaultFilter()))

	require.Equal(t, StateLoaded, b.Start(context.Background()))
	before := f.container.Updates()

	html := b.View(program.ParseFilter("", "", "contributors"))
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(t, html))

	html = b.View(program.ParseFilter("intermediate", "", ""))
	assert.Equal(t, []string{"Beta"}, titles(t, html))

	// View never touches the container.
	assert.Equal(t, before, f.container.Updates())
}

func TestPrograms(t *testing.T) {
	t.Parallel()

	b := New(&fakeSource{data: []byte(listing)}, newFixture().ports(), Options{})
	assert.NotNil(t, b.Programs(program.DefaultFilter()))
	assert.Empty(t, b.Programs(program.DefaultFilter()))

	require.Equal(t, StateLoaded, b.Start(context.Background()))
	got := b.Programs(program.ParseFilter("", "no", "contributors"))
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, "Gamma", got[1].Name)
}
