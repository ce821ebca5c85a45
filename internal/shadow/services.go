package shadow

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/config"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/ledger"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/monitoring"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/registry"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

// Service names of the memoized clients.
const (
	ServiceS3         = "s3"
	ServiceRegistry   = "registry"
	ServiceMonitoring = "monitoring"
	ServiceLedger     = "ledger"
)

// Services builds each collaborator client once per process and hands out
// the same instance afterwards. It is created from configuration and passed
// explicitly to whoever needs a client.
type Services struct {
	cfg    *config.Config
	logger logrus.FieldLogger

	mu       sync.Mutex
	clients  map[string]any
	builders map[string]func(ctx context.Context) (any, error)
	poolOpts []registry.PoolOption
}

// Option customizes Services.
type Option func(*Services)

// WithObjectStore injects the object store instead of the S3 client.
func WithObjectStore(store storage.ObjectStore) Option {
	return func(s *Services) { s.clients[ServiceS3] = store }
}

// WithAnalyzer injects the monitoring transport.
func WithAnalyzer(a monitoring.Analyzer) Option {
	return func(s *Services) { s.clients[ServiceMonitoring] = a }
}

// WithLedger injects the processing ledger.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Services) { s.clients[ServiceLedger] = l }
}

// WithPoolOptions passes options to the registry pool.
func WithPoolOptions(opts ...registry.PoolOption) Option {
	return func(s *Services) { s.poolOpts = append(s.poolOpts, opts...) }
}

// NewServices creates the service context. Clients are built lazily.
func NewServices(cfg *config.Config, logger logrus.FieldLogger, opts ...Option) *Services {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Services{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]any),
	}
	s.builders = map[string]func(ctx context.Context) (any, error){
		ServiceS3:         s.buildStore,
		ServiceRegistry:   s.buildRegistry,
		ServiceMonitoring: s.buildMonitoring,
		ServiceLedger:     s.buildLedger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the services were built from.
func (s *Services) Config() *config.Config { return s.cfg }

// Logger returns the base logger.
func (s *Services) Logger() logrus.FieldLogger { return s.logger }

func (s *Services) get(ctx context.Context, name string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[name]; ok {
		return c, nil
	}
	build, ok := s.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", name)
	}
	c, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", name, err)
	}
	s.logger.WithField("service", name).Debug("created client")
	s.clients[name] = c
	return c, nil
}

// Store returns the object store.
func (s *Services) Store(ctx context.Context) (storage.ObjectStore, error) {
	c, err := s.get(ctx, ServiceS3)
	if err != nil {
		return nil, err
	}
	return c.(storage.ObjectStore), nil
}

// Registry returns the registry model pool.
func (s *Services) Registry(ctx context.Context) (*registry.Pool, error) {
	c, err := s.get(ctx, ServiceRegistry)
	if err != nil {
		return nil, err
	}
	return c.(*registry.Pool), nil
}

// Monitoring returns the monitoring transport.
func (s *Services) Monitoring(ctx context.Context) (monitoring.Analyzer, error) {
	c, err := s.get(ctx, ServiceMonitoring)
	if err != nil {
		return nil, err
	}
	return c.(monitoring.Analyzer), nil
}

// Ledger returns the processing ledger.
func (s *Services) Ledger(ctx context.Context) (ledger.Ledger, error) {
	c, err := s.get(ctx, ServiceLedger)
	if err != nil {
		return nil, err
	}
	return c.(ledger.Ledger), nil
}

// Close releases every client that holds resources.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, c := range s.clients {
		closer, ok := c.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
	}
	s.clients = make(map[string]any)
	return firstErr
}

func (s *Services) buildStore(context.Context) (any, error) {
	return storage.NewS3Client(&storage.Config{
		EndpointURL:     s.cfg.S3EndpointURL,
		Region:          s.cfg.Region,
		AccessKeyID:     s.cfg.AccessKeyID,
		SecretAccessKey: s.cfg.SecretAccessKey,
		SessionToken:    s.cfg.SessionToken,
	})
}

func (s *Services) buildRegistry(context.Context) (any, error) {
	transport := registry.NewTransport(registry.TransportConfig{
		BaseURL:   s.cfg.HydrosphereEndpoint,
		RateLimit: s.cfg.RateLimit,
	})
	poll := registry.PollConfig{
		Timeout:       s.cfg.PollTimeout,
		Interval:      s.cfg.PollInterval,
		RetryLimit:    s.cfg.RetryLimit,
		RetryInterval: s.cfg.RetryInterval,
	}
	opts := append([]registry.PoolOption{registry.WithLogger(s.logger)}, s.poolOpts...)
	return registry.NewPool(registry.NewClient(transport), poll, opts...), nil
}

func (s *Services) buildMonitoring(context.Context) (any, error) {
	return monitoring.Dial(s.cfg.HydrosphereEndpoint)
}

func (s *Services) buildLedger(ctx context.Context) (any, error) {
	if s.cfg.LedgerURL == "" {
		return ledger.NewMemoryLedger(), nil
	}
	return ledger.NewPostgresLedger(ctx, s.cfg.LedgerURL)
}
