package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/sacavia/feedengine/client"
	"github.com/sacavia/feedengine/internal/config"
	"github.com/sacavia/feedengine/internal/decoder"
	"github.com/sacavia/feedengine/internal/infra/database"
	"github.com/sacavia/feedengine/internal/infra/gateway"
	"github.com/sacavia/feedengine/internal/infra/stream"
	"github.com/sacavia/feedengine/internal/metrics"
	"github.com/sacavia/feedengine/internal/service"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/usecase"
	"github.com/sacavia/feedengine/internal/utils"
)

// Engine is the assembled feed engine. Construct it with New, call Start
// once, and Close when done.
type Engine struct {
	Feed         *usecase.FeedUsecase
	Mutations    *usecase.MutationUsecase
	Sync         *usecase.SyncUsecase
	Suggestions  *usecase.SuggestionUsecase
	Blocklist    *usecase.BlocklistUsecase
	Invalidation *usecase.InvalidationUsecase
	Bus          *service.Bus
	Credentials  *service.CredentialService
	Metrics      *metrics.Metrics

	client   *client.Client
	seq      *utils.Sequence
	store    *store.Store
	changes  *notifier
	rdb      *redis.Client
	signal   *service.SignalService
	consumer *stream.Consumer
	producer *stream.Producer

	cancel context.CancelFunc
	wg     sync.WaitGroup
	unsubs []func()
}

// New wires the engine from configuration. reg may be nil.
func New(cfg config.Config, reg prometheus.Registerer) *Engine {
	m := metrics.New(reg)
	creds := service.NewCredentialService()
	cl := client.New(cfg.API.BaseURL, creds, client.Options{
		Timeout:   cfg.API.TimeoutDuration,
		UserAgent: cfg.API.UserAgent,
	})

	return assemble(cfg, m, creds, cl, Gateways{
		Feed:        gateway.NewFeedGateway(cl),
		Posts:       gateway.NewPostGateway(cl),
		Suggestions: gateway.NewSuggestionGateway(cl),
		Users:       gateway.NewUserGateway(cl, cfg.Blocklist.CacheTTLDuration),
	})
}

// Gateways are the server boundaries the engine talks through.
type Gateways struct {
	Feed interface {
		usecase.FeedGateway
		usecase.InteractionGateway
	}
	Posts       usecase.PostGateway
	Suggestions usecase.SuggestionGateway
	Users       interface {
		usecase.FollowGateway
		usecase.BlocklistGateway
	}
}

func assemble(cfg config.Config, m *metrics.Metrics, creds *service.CredentialService, cl *client.Client, gw Gateways) *Engine {
	st := store.New()
	seq := utils.NewSequence()
	dec := decoder.New(m)
	bus := service.NewBus()
	changes := newNotifier()
	st.OnChange(changes.notify)

	blocked := usecase.NewBlockedSet()
	suggestions := usecase.NewSuggestionUsecase(seq, gw.Suggestions, gw.Users, dec, blocked, m, usecase.SuggestionConfig{
		AllLimit:      cfg.Suggestions.AllLimit,
		CategoryLimit: cfg.Suggestions.CategoryLimit,
		Debounce:      cfg.Suggestions.DebounceDuration,
	})
	blocklist := usecase.NewBlocklistUsecase(st, seq, gw.Users, gw.Users, blocked, suggestions, m, cfg.Blocklist.RefreshDuration)
	reconcile := usecase.NewSyncUsecase(st, seq, gw.Feed, m)
	feed := usecase.NewFeedUsecase(st, seq, gw.Feed, dec, creds, reconcile, blocklist, suggestions, m, cfg.Feed.PageSize)
	mutations := usecase.NewMutationUsecase(st, seq, gw.Posts, creds, bus, m)

	e := &Engine{
		Feed:         feed,
		Mutations:    mutations,
		Sync:         reconcile,
		Suggestions:  suggestions,
		Blocklist:    blocklist,
		Invalidation: usecase.NewInvalidationUsecase(feed, m),
		Bus:          bus,
		Credentials:  creds,
		Metrics:      m,
		client:       cl,
		seq:          seq,
		store:        st,
		changes:      changes,
	}

	origin := uuid.NewString()
	if cfg.Bus.RedisAddr != "" {
		e.rdb = database.NewRedis(cfg.Bus)
		e.signal = service.NewSignalService(e.rdb, cfg.Bus.RedisChannel, origin)
		bus.AddRelay(e.signal)
	}
	if cfg.Bus.KafkaBrokers != "" && cfg.Bus.KafkaTopic != "" {
		e.producer = stream.NewProducer(cfg.Bus.KafkaBrokers, cfg.Bus.KafkaTopic, origin)
		e.consumer = stream.NewConsumer(cfg.Bus.KafkaBrokers, cfg.Bus.KafkaTopic, cfg.Bus.KafkaGroupID, origin, bus.Dispatch)
		bus.AddRelay(e.producer)
	}

	return e
}

// Start subscribes the engine to the bus and starts remote listeners.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.unsubs = append(e.unsubs,
		e.Bus.OnPostDeleted(e.Invalidation.HandlePostDeleted),
		e.Bus.OnPostCreated(e.Invalidation.HandlePostCreated),
	)

	if e.signal != nil {
		if err := database.PingRedis(ctx, e.rdb, 3*time.Second); err != nil {
			slog.WarnContext(ctx, "Redis not reachable, signals will be retried", slog.String("error", err.Error()), slog.String("module", "engine"))
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.signal.Listen(ctx, e.Bus); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Signal listener stopped", slog.String("error", err.Error()), slog.String("module", "engine"))
			}
		}()
	}
	if e.consumer != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.consumer.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "Stream consumer stopped", slog.String("error", err.Error()), slog.String("module", "engine"))
			}
		}()
	}

	slog.InfoContext(
		ctx, "Engine started",
		slog.Bool("redis", e.signal != nil),
		slog.Bool("kafka", e.consumer != nil),
		slog.String("module", "engine"),
	)
}

// Login installs token and reloads everything for the new identity.
func (e *Engine) Login(ctx context.Context, token string) error {
	e.Credentials.SetToken(ctx, token)
	e.client.Flush()
	return e.Feed.ForceRefreshAfterLogin(ctx)
}

// Logout drops the credential and every cache.
func (e *Engine) Logout(ctx context.Context) error {
	e.Credentials.Clear(ctx)
	e.client.Flush()
	return e.Feed.ClearAfterLogout(ctx)
}

// Changes returns a channel that receives a value whenever the store
// changes. Notifications coalesce; call the returned function to stop.
func (e *Engine) Changes() (<-chan struct{}, func()) {
	return e.changes.subscribe()
}

func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	for _, unsub := range e.unsubs {
		unsub()
	}
	e.wg.Wait()

	e.Suggestions.Stop()
	e.seq.Close()

	if e.consumer != nil {
		e.consumer.Close()
	}
	if e.producer != nil {
		e.producer.Close()
	}
	if e.rdb != nil {
		e.rdb.Close()
	}
}

type notifier struct {
	mu       sync.Mutex
	nextID   int
	watchers map[int]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{watchers: make(map[int]chan struct{})}
}

func (n *notifier) subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	ch := make(chan struct{}, 1)
	n.watchers[id] = ch
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.watchers, id)
	}
}

// notify runs on the sequence and must not block.
func (n *notifier) notify(uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
