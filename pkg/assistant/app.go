package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-srishti/pkg/cache"
	"github.com/teslashibe/go-srishti/pkg/classifier"
	"github.com/teslashibe/go-srishti/pkg/dataset"
	"github.com/teslashibe/go-srishti/pkg/live"
	"github.com/teslashibe/go-srishti/pkg/loader"
	"github.com/teslashibe/go-srishti/pkg/online"
	"github.com/teslashibe/go-srishti/pkg/resolver"
	"github.com/teslashibe/go-srishti/pkg/rules"
	"github.com/teslashibe/go-srishti/pkg/similarity"
	"github.com/teslashibe/go-srishti/pkg/speech"
	"github.com/teslashibe/go-srishti/pkg/web"
)

// Model ids registered with the background loader.
const (
	ModelClassifier = "classifier"
	ModelSimilarity = "similarity"
)

// Response sources, reported on events.
const (
	SourceOnline  = "online"
	SourceCache   = "cache"
	SourceRules   = "rules"
	SourceLive    = "live"
	SourceOffline = "offline"
)

var errNotConfigured = errors.New("assistant: loader not configured")

// Connectivity reports whether the online path is reachable.
type Connectivity interface {
	IsConnected(ctx context.Context) bool
}

// EventSink receives dashboard events.
type EventSink interface {
	Publish(e web.Event)
}

// Deps are the adapters the assistant drives. Listener, Speaker and
// Connectivity are required; the rest degrade when nil.
type Deps struct {
	Listener     speech.Listener
	Speaker      speech.Speaker
	Connectivity Connectivity
	Online       online.Backend

	LoadClassifier loader.LoadFunc[classifier.Model]
	LoadEncoder    loader.LoadFunc[similarity.Encoder]

	OpenCamera live.OpenFunc
	Detector   live.Detector

	Rules  *rules.Engine
	Events EventSink
	Clock  func() time.Time
	Logger *slog.Logger
}

// App owns every model handle, the chat session and the speech adapters
// for one assistant session.
type App struct {
	config Config
	deps   Deps
	base   *slog.Logger
	logger *slog.Logger
	now    func() time.Time

	cache    *cache.Store
	training *dataset.TrainingLog
	examples []dataset.Example
	rules    *rules.Engine

	loader     *loader.Loader
	classifier *loader.Slot[*classifier.Responder]
	similarity *loader.Slot[*similarity.Matcher]
	resolver   *resolver.Resolver

	live *live.Session

	// Queries from the voice loop and the dashboard are handled one at a time.
	queryMu sync.Mutex

	online       atomic.Bool
	lastMu       sync.RWMutex
	lastQuery    string
	lastResponse string
}

// New validates cfg and deps. Call Init before Run.
func New(cfg Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Listener == nil:
		return nil, &ConfigError{Field: "Listener", Message: "speech listener is required"}
	case deps.Speaker == nil:
		return nil, &ConfigError{Field: "Speaker", Message: "speech speaker is required"}
	case deps.Connectivity == nil:
		return nil, &ConfigError{Field: "Connectivity", Message: "connectivity checker is required"}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	rl := deps.Rules
	if rl == nil {
		rl = rules.Default()
	}

	paths := cfg.Paths()
	return &App{
		config:   cfg,
		deps:     deps,
		base:     logger,
		logger:   logger.With("component", "assistant.app"),
		now:      now,
		cache:    cache.New(paths.Cache),
		training: dataset.NewTrainingLog(paths.Training),
		rules:    rl,
	}, nil
}

// Init prepares persistent files, loads the validation examples, and
// starts background model loading. It does not wait for the models.
func (a *App) Init(ctx context.Context) error {
	if err := a.cache.EnsureFile(); err != nil {
		return fmt.Errorf("prepare cache: %w", err)
	}

	paths := a.config.Paths()
	examples, err := dataset.LoadExamples(paths.Validation)
	if err != nil {
		a.logger.Warn("validation dataset unreadable, similarity pool is empty", "path", paths.Validation, "error", err)
	}
	a.examples = examples
	a.logger.Info("validation dataset loaded", "examples", len(examples))

	a.classifier = loader.NewSlot[*classifier.Responder](ModelClassifier, a.loadClassifier)
	a.similarity = loader.NewSlot[*similarity.Matcher](ModelSimilarity, a.loadMatcher)

	a.loader = loader.New()
	if err := a.loader.Register(a.classifier); err != nil {
		return err
	}
	if err := a.loader.Register(a.similarity); err != nil {
		return err
	}

	a.resolver = resolver.New(a.classifier, a.similarity, a.examples,
		resolver.WithThreshold(a.config.Threshold),
		resolver.WithLogger(a.base),
	)

	if a.deps.OpenCamera != nil && a.deps.Detector != nil {
		a.live = live.New(a.deps.OpenCamera, a.deps.Detector, a.announce,
			live.WithObserver(a.observeDetection),
			live.WithLogger(a.base),
		)
	}

	a.loader.StartAll(ctx)
	return nil
}

func (a *App) loadClassifier(ctx context.Context) (*classifier.Responder, error) {
	if a.deps.LoadClassifier == nil {
		return nil, errNotConfigured
	}
	m, err := a.deps.LoadClassifier(ctx)
	if err != nil {
		return nil, err
	}
	return classifier.NewResponder(m), nil
}

func (a *App) loadMatcher(ctx context.Context) (*similarity.Matcher, error) {
	if a.deps.LoadEncoder == nil {
		return nil, errNotConfigured
	}
	enc, err := a.deps.LoadEncoder(ctx)
	if err != nil {
		return nil, err
	}
	m, err := similarity.NewMatcher(enc)
	if err != nil {
		return nil, err
	}
	if err := m.Warm(ctx, a.examples); err != nil {
		a.logger.Warn("example embeddings not precomputed", "error", err)
	}
	return m, nil
}

// Loader exposes the background loader, mainly for status and tests.
func (a *App) Loader() *loader.Loader {
	return a.loader
}

// Run greets the user and handles queries until an exit word, a closed
// listener, or ctx cancellation.
func (a *App) Run(ctx context.Context) error {
	a.say(ctx, Greeting(a.now().Hour())+" "+Introduction)

	opts := speech.ListenOptions{
		Timeout:     a.config.ListenTimeout,
		DeviceIndex: a.config.InputDevice,
		Language:    a.config.Language,
	}

	for ctx.Err() == nil {
		query, err := a.deps.Listener.Listen(ctx, opts)
		if err != nil {
			if errors.Is(err, speech.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			a.logger.Warn("listen failed", "error", err)
			continue
		}

		query = strings.TrimSpace(query)
		if query == "" || query == speech.NoInput {
			continue
		}
		if IsExit(query) {
			a.say(ctx, Farewell)
			return nil
		}

		a.ProcessQuery(ctx, query)
	}
	return nil
}

// ProcessQuery answers query, speaks the answer and returns it. A blank
// query is a no-op and returns "".
func (a *App) ProcessQuery(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" || query == speech.NoInput {
		return ""
	}

	a.queryMu.Lock()
	defer a.queryMu.Unlock()

	a.logger.Info("query", "text", query)
	a.publish(web.Event{Type: web.EventQuery, Message: query})

	response, source := a.Respond(ctx, query)

	a.lastMu.Lock()
	a.lastQuery, a.lastResponse = query, response
	a.lastMu.Unlock()

	a.logger.Info("response", "source", source, "text", response)
	a.publish(web.Event{Type: web.EventResponse, Message: response, Source: source})
	a.say(ctx, response)
	return response
}

// Respond computes the answer to query without speaking it, and reports
// which path produced it.
func (a *App) Respond(ctx context.Context, query string) (string, string) {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, cmdStartLive):
		return a.startLive(ctx), SourceLive
	case strings.Contains(lower, cmdStopLive):
		return a.stopLive(), SourceLive
	}

	if a.deps.Online != nil {
		connected := a.deps.Connectivity.IsConnected(ctx)
		a.online.Store(connected)
		if connected {
			return a.answerOnline(ctx, query), SourceOnline
		}
	} else {
		a.online.Store(false)
	}
	return a.answerOffline(ctx, query)
}

func (a *App) answerOnline(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return MsgDidntCatch
	}

	reply, err := a.deps.Online.Ask(ctx, query)
	if err != nil {
		if errors.Is(err, online.ErrEmptyResponse) {
			return MsgNoTextResponse
		}
		a.logger.Error("online backend failed", "error", err)
		return MsgOnlineTrouble
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return MsgNoTextResponse
	}

	if err := a.cache.Put(query, reply); err != nil {
		a.logger.Warn("cache write failed", "error", err)
	}
	if err := a.training.Append(dataset.Example{Input: query, ExpectedOutput: reply}); err != nil {
		a.logger.Warn("training capture failed", "error", err)
	}
	return reply
}

func (a *App) answerOffline(ctx context.Context, query string) (string, string) {
	if answer, ok := a.cache.Get(query); ok {
		return MsgCachedPrefix + answer, SourceCache
	}

	out := a.resolver.Resolve(ctx, query)
	switch out.Kind {
	case resolver.Answer:
		if text, ok := a.rules.Execute(out.Text); ok {
			return text, SourceRules
		}
		return out.Text, out.Tier
	case resolver.Loading:
		return MsgInitializing, SourceOffline
	}

	if text, ok := a.rules.Match(query); ok {
		return text, SourceRules
	}
	return MsgOfflineUnsure, SourceOffline
}

func (a *App) startLive(ctx context.Context) string {
	if a.live == nil {
		return MsgLiveNoModel
	}
	if a.live.Running() {
		return MsgLiveAlreadyRunning
	}
	// The session outlives this query; only the app's shutdown stops it.
	if err := a.live.Start(context.WithoutCancel(ctx)); err != nil {
		if errors.Is(err, live.ErrAlreadyRunning) {
			return MsgLiveAlreadyRunning
		}
		a.logger.Error("live assistance failed to start", "error", err)
		return MsgLiveNoCamera
	}
	return MsgLiveStarted
}

func (a *App) stopLive() string {
	if a.live == nil || !a.live.Running() {
		return MsgLiveNotRunning
	}
	a.say(context.Background(), MsgLiveStopping)
	if err := a.live.Stop(); err != nil && !errors.Is(err, live.ErrNotRunning) {
		a.logger.Warn("live assistance stop", "error", err)
	}
	return MsgLiveStopped
}

// LiveRunning reports whether live assistance is active.
func (a *App) LiveRunning() bool {
	return a.live != nil && a.live.Running()
}

func (a *App) announce(ctx context.Context, text string) {
	a.publish(web.Event{Type: web.EventDetection, Message: text, Source: SourceLive})
	a.say(ctx, text)
}

func (a *App) observeDetection(labels []string) {
	a.logger.Debug("detected", "labels", labels)
}

func (a *App) say(ctx context.Context, text string) {
	if text == "" {
		return
	}
	opts := speech.SpeakOptions{Language: a.config.Language, Speed: a.config.Speed}
	if err := a.deps.Speaker.Speak(ctx, text, opts); err != nil {
		a.logger.Warn("speak failed", "error", err)
	}
}

func (a *App) publish(e web.Event) {
	if a.deps.Events != nil {
		a.deps.Events.Publish(e)
	}
}

// Status builds the dashboard snapshot.
func (a *App) Status() web.Status {
	models := make(map[string]string)
	if a.loader != nil {
		for id, st := range a.loader.States() {
			models[id] = st.String()
		}
	}

	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	return web.Status{
		Online:       a.online.Load(),
		Models:       models,
		LiveRunning:  a.LiveRunning(),
		CacheSize:    a.cache.Len(),
		LastQuery:    a.lastQuery,
		LastResponse: a.lastResponse,
	}
}

// Shutdown stops live assistance and releases every adapter.
func (a *App) Shutdown() error {
	var errs []error
	if a.live != nil && a.live.Running() {
		if err := a.live.Stop(); err != nil && !errors.Is(err, live.ErrNotRunning) {
			errs = append(errs, err)
		}
	}
	if a.deps.Online != nil {
		if err := a.deps.Online.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.deps.Listener.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.deps.Speaker.Close(); err != nil {
		errs = append(errs, err)
	}
	a.logger.Info("assistant stopped")
	return errors.Join(errs...)
}
