package relayserver

import (
	"crypto/rsa"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"olaf/internal/applog"
	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/neighbourhood"
)

// MaxSignatureFailures is how many consecutive signature-check
// failures a client connection tolerates before it is disconnected
// (spec.md §4.4).
const MaxSignatureFailures = 3

// HandshakeTimeout bounds how long a freshly accepted connection has
// to produce a valid initial message (spec.md §5).
const HandshakeTimeout = 10 * time.Second

// Server holds the relay's shared state: the local client table and a
// handle to the neighbourhood registry that owns the peer table. A
// single mutex guards the client table; registry state has its own
// internal locking (internal/neighbourhood).
type Server struct {
	Self       domain.Address
	Priv       *rsa.PrivateKey
	PubPEM     []byte
	Registry   *neighbourhood.Registry
	ClientKeys domain.ClientKeyCache
	Log        *logrus.Logger
	Verbose    bool

	mu      sync.Mutex
	clients map[domain.Fingerprint]*clientHandle
}

// New builds a Server. Callers still need to call ServeClients/
// ServePeers (via net/http) and Registry.Start to bring the mesh up.
func New(self domain.Address, priv *rsa.PrivateKey, pubPEM []byte, registry *neighbourhood.Registry, clientKeys domain.ClientKeyCache, log *logrus.Logger) *Server {
	return &Server{
		Self:       self,
		Priv:       priv,
		PubPEM:     pubPEM,
		Registry:   registry,
		ClientKeys: clientKeys,
		Log:        log,
		clients:    make(map[domain.Fingerprint]*clientHandle),
	}
}

func (s *Server) selfFingerprint() (domain.Fingerprint, error) {
	fp, err := crypto.Fingerprint(&s.Priv.PublicKey)
	return domain.Fingerprint(fp), err
}

func (s *Server) logFrame(direction string, raw []byte) {
	applog.LogMessage(s.Log, direction, raw, s.Verbose)
}
