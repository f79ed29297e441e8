package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/cardserver/logger"
	"github.com/wfunc/cardserver/models"
	"github.com/wfunc/cardserver/room"
	"github.com/wfunc/cardserver/services"
)

// Server manages the RPC listener for the ops interface.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes stats and room inspection over net/rpc.
// Methods follow the net/rpc signature: exported method, exported
// arguments, second argument is a pointer, return type is error.
type AdminService struct {
	stats    *services.StatsService
	registry *room.Registry
}

// NewAdminService creates a new AdminService.
func NewAdminService(stats *services.StatsService, registry *room.Registry) *AdminService {
	return &AdminService{stats: stats, registry: registry}
}

type GetPlayerStatsArgs struct {
	Name string
}

type GetPlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (a *AdminService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := a.stats.PlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type TopSippersArgs struct {
	Limit int
}

type TopSippersReply struct {
	Sippers []models.SipperStat
}

func (a *AdminService) TopSippers(args *TopSippersArgs, reply *TopSippersReply) error {
	sippers, err := a.stats.TopSippers(args.Limit)
	if err != nil {
		return err
	}
	reply.Sippers = sippers
	return nil
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.RoomInfo
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = a.registry.List()
	return nil
}
