package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bimo/internal/listen"
	"bimo/internal/state"
)

// scriptedRecognizer replays a fixed sequence of utterances/errors, then
// blocks until the context is cancelled.
type scriptedRecognizer struct {
	mu     sync.Mutex
	script []step
}

type step struct {
	text string
	err  error
}

func (s *scriptedRecognizer) Listen(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.script) == 0 {
		s.mu.Unlock()
		<-ctx.Done()
		return "", ctx.Err()
	}
	st := s.script[0]
	s.script = s.script[1:]
	s.mu.Unlock()
	return st.text, st.err
}

type captureModel struct {
	mu     sync.Mutex
	orders []string
	reply  string
	err    error
}

func (m *captureModel) Send(_ context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, text)
	return m.reply, m.err
}

func (m *captureModel) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.orders...)
}

type captureProcessor struct {
	mu      sync.Mutex
	replies []string
	store   *state.Store
}

func (p *captureProcessor) Process(_ context.Context, reply string) {
	p.mu.Lock()
	p.replies = append(p.replies, reply)
	p.mu.Unlock()
	if p.store != nil {
		p.store.SetGenerating(false)
	}
}

func (p *captureProcessor) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.replies...)
}

type captureSpeaker struct {
	mu   sync.Mutex
	said []string
}

func (s *captureSpeaker) Say(text string) {
	s.mu.Lock()
	s.said = append(s.said, text)
	s.mu.Unlock()
}

func (s *captureSpeaker) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

func runScript(t *testing.T, script []step, model *captureModel) (*captureProcessor, *captureSpeaker, *state.Store) {
	t.Helper()

	st := state.NewStore(time.Hour)
	disp := &captureProcessor{store: st}
	sp := &captureSpeaker{}
	rec := &scriptedRecognizer{script: script}

	c := New(rec, model, disp, sp, st, Config{Backoff: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	// Give the loop time to drain the script, then stop it.
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.script) == 0
	}, 2*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	return disp, sp, st
}

func TestLoop_TriggerWithCommandGoesStraightToProcessing(t *testing.T) {
	model := &captureModel{reply: "[FELIZ] ¡Hola!"}
	disp, _, st := runScript(t, []step{
		{text: "bimo qué hora es"},
	}, model)

	assert.Equal(t, []string{"qué hora es"}, model.all())
	assert.Equal(t, []string{"[FELIZ] ¡Hola!"}, disp.all())
	assert.False(t, st.AwaitingOrder())
}

func TestLoop_BareTriggerAwaitsOrder(t *testing.T) {
	model := &captureModel{reply: "ok"}
	disp, sp, _ := runScript(t, []step{
		{text: "bimo"},
		{text: "cuéntame un chiste"},
	}, model)

	// Activation reply spoken, then the follow-up utterance is the order.
	require.NotEmpty(t, sp.all())
	assert.Contains(t, []string{"¿Sí?", "¿Qué necesitas?", "Dime"}, sp.all()[0])
	assert.Equal(t, []string{"cuéntame un chiste"}, model.all())
	assert.Len(t, disp.all(), 1)
}

func TestLoop_UnrelatedUtteranceIgnoredWhenIdle(t *testing.T) {
	model := &captureModel{reply: "ok"}
	disp, sp, st := runScript(t, []step{
		{text: "hola qué tal"},
	}, model)

	assert.Empty(t, model.all())
	assert.Empty(t, disp.all())
	assert.Empty(t, sp.all())
	assert.False(t, st.AwaitingOrder())
}

func TestLoop_TimeoutKeepsIdle(t *testing.T) {
	model := &captureModel{}
	_, sp, st := runScript(t, []step{
		{err: listen.ErrTimeout},
		{err: listen.ErrTimeout},
	}, model)

	assert.Empty(t, sp.all())
	assert.False(t, st.AwaitingOrder())
}

func TestLoop_UnrecognizedWhileAwaitingApologizes(t *testing.T) {
	model := &captureModel{}
	_, sp, st := runScript(t, []step{
		{text: "bimo"},
		{err: listen.ErrUnrecognized},
	}, model)

	said := sp.all()
	require.Len(t, said, 2)
	assert.Equal(t, "No te escuché bien", said[1])
	assert.False(t, st.AwaitingOrder())
}

func TestLoop_UnrecognizedWhileIdleIsSilent(t *testing.T) {
	model := &captureModel{}
	_, sp, _ := runScript(t, []step{
		{err: listen.ErrUnrecognized},
	}, model)

	assert.Empty(t, sp.all())
}

func TestLoop_BackendErrorBacksOffAndRecovers(t *testing.T) {
	model := &captureModel{reply: "ok"}
	disp, _, _ := runScript(t, []step{
		{err: errors.New("portaudio exploded")},
		{text: "bimo di algo"},
	}, model)

	assert.Equal(t, []string{"di algo"}, model.all())
	assert.Len(t, disp.all(), 1)
}

func TestLoop_ModelFailureSpeaksApology(t *testing.T) {
	model := &captureModel{err: errors.New("quota")}
	disp, sp, st := runScript(t, []step{
		{text: "bimo hola"},
	}, model)

	assert.Empty(t, disp.all())
	require.NotEmpty(t, sp.all())
	assert.Equal(t, "Tuve un problema procesando eso", sp.all()[0])
	assert.False(t, st.Generating())
}

func TestLoop_ThinkingStateDuringProcessing(t *testing.T) {
	st := state.NewStore(time.Hour)
	sp := &captureSpeaker{}
	model := &captureModel{reply: "ok"}

	var sawGenerating bool
	disp := &processorFunc{fn: func(_ context.Context, _ string) {
		sawGenerating = st.Generating()
		st.SetGenerating(false)
	}}

	rec := &scriptedRecognizer{script: []step{{text: "bimo hola"}}}
	c := New(rec, model, disp, sp, st, Config{Backoff: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { c.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return len(model.all()) == 1 },
		time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	assert.True(t, sawGenerating, "generating flag must be set when the dispatcher runs")
}

type processorFunc struct {
	fn func(ctx context.Context, reply string)
}

func (p *processorFunc) Process(ctx context.Context, reply string) { p.fn(ctx, reply) }
