package app

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"olaf/internal/applog"
	"olaf/internal/clientengine"
	"olaf/internal/config"
	domain "olaf/internal/domain"
	"olaf/internal/facade"
	"olaf/internal/store"
)

// Client bundles everything a client process needs: its identity, the
// protocol engine talking to its home server, and the local HTTP
// facade polled by a UI.
type Client struct {
	Config config.ClientConfig
	Log    *logrus.Logger
	Engine *clientengine.Engine
	Facade *facade.Facade
}

// NewClient builds a Client from cfg. Callers still need to call
// Start to connect to the home server and serve the facade.
func NewClient(cfg config.ClientConfig) (*Client, error) {
	log := applog.New("info")

	keys := store.NewKeyFileStore(cfg.ConfigDir, cfg.KeyPassphrase)
	priv, pubPEM, err := loadOrGenerateKeys(keys)
	if err != nil {
		return nil, err
	}

	clientKeys := store.NewClientKeyFileCache(cfg.ConfigDir)
	messages := store.NewMessageFileLog(cfg.ChatDataDir, cfg.MessageExpirySecs)

	home := domain.Address(fmtAddr(cfg.ServerAddress, cfg.ServerPort))
	dialer := clientengine.GorillaDialer{Dialer: websocket.Dialer{}}
	engine, err := clientengine.New(home, priv, pubPEM, dialer, clientKeys, messages, log)
	if err != nil {
		return nil, err
	}

	f := facade.New(engine, cfg, log)

	return &Client{
		Config: cfg,
		Log:    log,
		Engine: engine,
		Facade: f,
	}, nil
}

// Start connects to the home server and serves the facade's HTTP
// mux. It blocks until ctx is cancelled or one of the two fails.
func (c *Client) Start(ctx context.Context) error {
	connErrs := make(chan error, 1)
	go func() { connErrs <- c.Engine.Connect(ctx) }()

	mux := http.NewServeMux()
	c.Facade.RegisterRoutes(mux)
	srv := &http.Server{Addr: fmtAddr("0.0.0.0", c.Config.HTTPPort), Handler: mux}

	srvErrs := make(chan error, 1)
	go func() { srvErrs <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		srv.Close()
		return ctx.Err()
	case err := <-connErrs:
		srv.Close()
		return err
	case err := <-srvErrs:
		return err
	}
}
