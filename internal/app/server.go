package app

import (
	"context"
	"crypto/rsa"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"olaf/internal/applog"
	"olaf/internal/config"
	domain "olaf/internal/domain"
	"olaf/internal/filestore"
	"olaf/internal/neighbourhood"
	"olaf/internal/relayserver"
	"olaf/internal/store"
)

// Server bundles everything a relay server process needs: its
// identity, the neighbourhood registry, the relay core, and the file
// store, all wired from a config.ServerConfig.
type Server struct {
	Config config.ServerConfig
	Priv   *rsa.PrivateKey
	PubPEM []byte
	Log    *logrus.Logger
	Relay  *relayserver.Server
	Mesh   *neighbourhood.Registry
	Files  *filestore.Store
	Ledger domain.FileLedger
}

// NewServer builds a Server from cfg. Callers still need to call
// Start to bring the mesh and HTTP listeners up.
func NewServer(cfg config.ServerConfig) (*Server, error) {
	log := applog.New("info")

	keys := store.NewKeyFileStore(cfg.ConfigDir, cfg.KeyPassphrase)
	priv, pubPEM, err := loadOrGenerateKeys(keys)
	if err != nil {
		return nil, err
	}

	self := domain.Address(cfg.ExternalAddress)
	if self == "" {
		self = domain.Address(cfg.BindAddress)
	}

	addrs := make([]domain.Address, len(cfg.NeighbourAddresses))
	for i, a := range cfg.NeighbourAddresses {
		addrs[i] = domain.Address(a)
	}
	neighbourDir := store.NewNeighbourFileDirectory(cfg.NeighboursDir, addrs)
	clientKeys := store.NewClientKeyFileCache(cfg.ClientsDir)

	relay := relayserver.New(self, priv, pubPEM, nil, clientKeys, log)
	relay.Verbose = cfg.LogMessages

	dialer := neighbourhood.GorillaDialer{Dialer: websocket.Dialer{}}
	mesh := neighbourhood.NewRegistry(self, priv, neighbourDir, dialer, log, relay.HandlePeerFrame)
	relay.Registry = mesh

	ledger, err := filestore.OpenBoltLedger(cfg.FilesDir + "/ledger.db")
	if err != nil {
		return nil, err
	}
	files := filestore.New(cfg.FilesDir, ledger, neighbourDir, pubPEM, "http://"+cfg.ExternalAddress, log)

	return &Server{
		Config: cfg,
		Priv:   priv,
		PubPEM: pubPEM,
		Log:    log,
		Relay:  relay,
		Mesh:   mesh,
		Files:  files,
		Ledger: ledger,
	}, nil
}

// Start launches the neighbourhood reconnect loops and the
// client/peer/HTTP listeners. It blocks until ctx is cancelled or a
// listener fails, then closes the three HTTP servers and the upload
// ledger. WebSocket connections already upgraded by the relay are not
// closed by http.Server.Close and stay open until the process exits.
func (s *Server) Start(ctx context.Context) error {
	s.Mesh.Start(ctx)

	clientMux := http.NewServeMux()
	clientMux.HandleFunc("/client", s.Relay.ServeClients)
	clientSrv := &http.Server{Addr: fmtAddr(s.Config.BindAddress, s.Config.ClientWSPort), Handler: clientMux}

	peerMux := http.NewServeMux()
	peerMux.HandleFunc("/peer", s.Relay.ServePeers)
	peerSrv := &http.Server{Addr: fmtAddr(s.Config.BindAddress, s.Config.ServerWSPort), Handler: peerMux}

	httpMux := http.NewServeMux()
	s.Files.RegisterRoutes(httpMux)
	httpMux.Handle("GET /metrics", promhttp.Handler())
	fileSrv := &http.Server{Addr: fmtAddr(s.Config.BindAddress, s.Config.HTTPPort), Handler: httpMux}

	errs := make(chan error, 3)
	go func() { errs <- clientSrv.ListenAndServe() }()
	go func() { errs <- peerSrv.ListenAndServe() }()
	go func() { errs <- fileSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		clientSrv.Close()
		peerSrv.Close()
		fileSrv.Close()
		s.Ledger.Close()
		return ctx.Err()
	case err := <-errs:
		clientSrv.Close()
		peerSrv.Close()
		fileSrv.Close()
		s.Ledger.Close()
		return err
	}
}

func fmtAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
