// Package di provides dependency injection container
package di

import (
	"errors"
	"fmt"

	"github.com/ssargent/lwes/pkg/api"
	"github.com/ssargent/lwes/pkg/config"
	"github.com/ssargent/lwes/pkg/esf"
	"github.com/ssargent/lwes/pkg/event"
	"github.com/ssargent/lwes/pkg/journal"
	"github.com/ssargent/lwes/pkg/logger"
	"github.com/ssargent/lwes/pkg/storage"
	"github.com/ssargent/lwes/pkg/transport"
	"go.uber.org/zap"
)

// SenderFactory opens the transport an emitter writes to
type SenderFactory func(config.Transport) (transport.Sender, error)

// ReceiverFactory opens the transport a listener reads from
type ReceiverFactory func(config.Transport) (transport.Receiver, error)

// Container holds all the dependencies for the application. Components
// are built on first use and closed together by Close.
type Container struct {
	config          *config.Config
	logger          *zap.Logger
	senderFactory   SenderFactory
	receiverFactory ReceiverFactory

	schema  *esf.Dictionary
	metrics *api.Metrics
	stats   *api.Stats
	closers []func() error
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:          cfg,
		senderFactory:   defaultSender,
		receiverFactory: defaultReceiver,
	}
}

func transportConfig(t config.Transport) transport.Config {
	return transport.Config{
		Address:        t.Address,
		Port:           t.Port,
		Interface:      t.Interface,
		TTL:            t.TTL,
		ReceiveTimeout: t.ReceiveTimeout,
		BufferSize:     t.BufferSize,
	}
}

func defaultSender(t config.Transport) (transport.Sender, error) {
	return transport.NewUDPSender(transportConfig(t))
}

func defaultReceiver(t config.Transport) (transport.Receiver, error) {
	return transport.NewUDPReceiver(transportConfig(t))
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() (*zap.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	l, err := logger.New(c.config.Logging.Level, c.config.Logging.Format)
	if err != nil {
		return nil, err
	}
	c.logger = l
	return l, nil
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetSenderFactory allows overriding the sender factory (for testing)
func (c *Container) SetSenderFactory(factory SenderFactory) {
	c.senderFactory = factory
}

// SetReceiverFactory allows overriding the receiver factory (for testing)
func (c *Container) SetReceiverFactory(factory ReceiverFactory) {
	c.receiverFactory = factory
}

// Schema loads the configured ESF file. It returns nil, and events are
// accepted unchecked, when no schema path is configured.
func (c *Container) Schema() (*esf.Dictionary, error) {
	if c.schema != nil || c.config.Schema.Path == "" {
		return c.schema, nil
	}
	dict, err := esf.LoadFile(c.config.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	c.schema = dict
	return dict, nil
}

// eventSchema returns the schema as the interface event decoding uses,
// keeping a nil dictionary a nil interface.
func (c *Container) eventSchema() (event.Schema, error) {
	dict, err := c.Schema()
	if err != nil || dict == nil {
		return nil, err
	}
	return dict, nil
}

// Emitter opens the configured sender and wraps it in an emitter
func (c *Container) Emitter() (*transport.Emitter, error) {
	log, err := c.Logger()
	if err != nil {
		return nil, err
	}
	sender, err := c.senderFactory(c.config.Transport)
	if err != nil {
		return nil, fmt.Errorf("failed to open sender: %w", err)
	}
	// the emitter closes the sender itself
	return transport.NewEmitter(sender,
		transport.WithHeartbeat(c.config.Transport.HeartbeatFreq),
		transport.WithLogger(log),
	), nil
}

// Listener opens the configured receiver and wraps it in a listener
// that applies the schema when one is configured.
func (c *Container) Listener() (*transport.Listener, error) {
	log, err := c.Logger()
	if err != nil {
		return nil, err
	}
	schema, err := c.eventSchema()
	if err != nil {
		return nil, err
	}
	receiver, err := c.receiverFactory(c.config.Transport)
	if err != nil {
		return nil, fmt.Errorf("failed to open receiver: %w", err)
	}

	opts := []transport.ListenerOption{transport.WithListenerLogger(log)}
	if schema != nil && c.config.Schema.Strict {
		opts = append(opts, transport.WithSchema(schema))
	}
	l := transport.NewListener(receiver, opts...)
	c.closers = append(c.closers, l.Close)
	return l, nil
}

// JournalWriter opens the configured journal, nil when none is configured
func (c *Container) JournalWriter() (*journal.Writer, error) {
	jc := c.config.Journal
	if jc.Path == "" {
		return nil, nil
	}
	w, err := journal.NewWriter(journal.WriterConfig{
		FilePath:      jc.Path,
		Gzip:          jc.Gzip,
		FsyncInterval: jc.FsyncInterval,
		BufferSize:    jc.BufferSize,
		SiteID:        jc.SiteID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	c.closers = append(c.closers, w.Close)
	return w, nil
}

// Archive opens the configured archive, nil when none is configured
func (c *Container) Archive() (*storage.Archive, error) {
	if c.config.Archive.DataDir == "" {
		return nil, nil
	}
	a, err := storage.NewArchive(c.config.Archive.DataDir, storage.Options{})
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, a.Close)
	return a, nil
}

// Metrics returns the Prometheus metrics, nil when metrics are disabled
func (c *Container) Metrics() *api.Metrics {
	if c.metrics == nil && c.config.Metrics.Enabled {
		c.metrics = api.NewMetrics()
	}
	return c.metrics
}

// Stats returns the listener statistics, mirrored into Metrics
func (c *Container) Stats() *api.Stats {
	if c.stats == nil {
		c.stats = api.NewStats(c.Metrics())
	}
	return c.stats
}

// StatsServer returns the HTTP stats server, nil when metrics are disabled
func (c *Container) StatsServer() *api.Server {
	if !c.config.Metrics.Enabled {
		return nil
	}
	return api.NewServer(c.Stats(), api.ServerConfig{
		Bind: c.config.Metrics.Bind,
		Port: c.config.Metrics.Port,
	}, c.Metrics())
}

// Close closes every component the container opened, newest first
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	return errors.Join(errs...)
}
