package core

import (
	"context"
	"net"
	"sync"

	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/definition"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Server is the relay hub. It owns the group registry and fans
// accepted updates out to every subscriber of a group, imposing the
// total order all replicas follow.
type Server struct {
	configuration *types.ServerConfiguration
	log           types.Logger
	metrics       *serverMetrics
	listener      net.Listener

	mu     sync.Mutex
	groups map[uint32]*group
}

// NewServer binds the listening socket. The relay does not accept
// connections until Run is called.
func NewServer(configuration *types.ServerConfiguration) (*Server, error) {
	if configuration.Logger == nil {
		configuration.Logger = definition.NewDefaultLogger()
	}
	if configuration.BroadcastBuffer <= 0 {
		configuration.BroadcastBuffer = types.DefaultBroadcastBuffer
	}
	if configuration.MaxFrameSize == 0 {
		configuration.MaxFrameSize = types.DefaultMaxFrameSize
	}
	listener, err := net.Listen("tcp", configuration.Address)
	if err != nil {
		return nil, types.ConnectionErrorf("binding %s: %v", configuration.Address, err)
	}
	return &Server{
		configuration: configuration,
		log:           configuration.Logger,
		metrics:       newServerMetrics(),
		listener:      listener,
		groups:        make(map[uint32]*group),
	}, nil
}

// Address returns the bound listener address.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Registry exposes the relay metrics for scraping.
func (s *Server) Registry() *prometheus.Registry {
	return s.metrics.registry
}

// Run accepts and serves connections until the context is cancelled,
// then closes every connection and waits for the handlers to drain.
func (s *Server) Run(ctx context.Context) error {
	s.log.Infof("relay listening on %s", s.Address())
	handlers, ctx := errgroup.WithContext(ctx)
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Errorf("accepting connection: %v", err)
			break
		}
		handlers.Go(func() error {
			s.handleConnection(ctx, conn)
			return nil
		})
	}

	err := handlers.Wait()
	s.log.Infof("relay on %s shut down", s.Address())
	return err
}

// groupFor resolves a group, creating it lazily on first JOIN. Groups
// live for the process lifetime of the relay.
func (s *Server) groupFor(id uint32) *group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		g = newGroup(id, s.configuration.BroadcastBuffer, s.log, s.metrics)
		s.groups[id] = g
		s.metrics.groups.Inc()
		s.log.Infof("created group %d", id)
	}
	return g
}

// History returns a copy of the accepted history of a group, or nil if
// the group was never joined.
func (s *Server) History(id uint32) []types.ServerMessage {
	s.mu.Lock()
	g, ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return g.snapshot()
}

// PacketCounter returns the number of accepted updates of a group.
func (s *Server) PacketCounter(id uint32) uint32 {
	s.mu.Lock()
	g, ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return g.packetCounter()
}
