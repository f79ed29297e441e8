package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/cardserver/broadcast"
	"github.com/wfunc/cardserver/config"
	"github.com/wfunc/cardserver/game"
	"github.com/wfunc/cardserver/logger"
	"github.com/wfunc/cardserver/monitor"
	"github.com/wfunc/cardserver/network"
	"github.com/wfunc/cardserver/persistence"
	"github.com/wfunc/cardserver/room"
	cardserver_rpc "github.com/wfunc/cardserver/rpc"
	"github.com/wfunc/cardserver/services"
	"github.com/wfunc/cardserver/session"
	"github.com/wfunc/cardserver/timer"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	registry       *room.Registry
	sessionManager *session.Manager
	statsService   *services.StatsService
	broadcaster    broadcast.Broadcaster
	rpcServer      *cardserver_rpc.Server
	mon            *monitor.Monitor
	timers         *timer.TimerManager
	roomIdleTTL    time.Duration
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		registry:       room.NewRegistry(cfg.Game.MaxPlayers),
		sessionManager: session.NewManager(),
		statsService:   services.NewStatsService(db),
		mon:            mon,
		timers:         timer.NewTimerManager(),
		roomIdleTTL:    cfg.Game.RoomIdleTTL,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.registry, s.sessionManager)

	// 初始化RPC服务器
	rpcServer, err := cardserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	adminService := cardserver_rpc.NewAdminService(s.statsService, s.registry)
	rpc.Register(adminService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	// 定期清理空闲房间
	s.timers.AddTimer(s.roomIdleTTL, s.roomIdleTTL, func() {
		removed := s.registry.SweepIdle(s.roomIdleTTL)
		if removed > 0 {
			logger.Log.Infof("Swept %d idle rooms", removed)
		}
		s.mon.SetActiveRooms(s.registry.Count())
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		s.handleDeparture(sess)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	if packet.MsgID == network.MsgTypeHeartbeat {
		sess.LastActive = time.Now()
		return
	}

	s.mon.IncCommandsReceived()
	start := time.Now()
	defer func() {
		s.mon.ObserveCommandLatency(time.Since(start))
	}()

	switch packet.MsgID {
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeStartGame:
		s.handleStartGame(sess, packet)
	case network.MsgTypeDrawCard:
		s.handleDrawCard(sess, packet)
	case network.MsgTypeSelectTarget:
		s.handleSelectTarget(sess, packet)
	case network.MsgTypeUseShield:
		s.handleUseShield(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req network.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.Name == "" {
		s.sendError(sess, "A player name is required")
		return
	}

	player := game.NewPlayer(req.Name, true)
	r := s.registry.CreateRoom(player, s.broadcaster)
	sess.PlayerID = player.ID
	sess.RoomID = r.ID
	s.mon.SetActiveRooms(s.registry.Count())

	logger.Log.Infof("Session %s created room %s as %s", sess.GetID(), r.ID, req.Name)

	snap := r.Snapshot()
	resp := network.CreateRoomResponse{RoomID: r.ID, Player: snap.Players[0]}
	data, _ := json.Marshal(resp)
	sess.Send(network.MsgTypeCreateRoom, data)
	s.broadcastState(r.ID, snap)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.Name == "" {
		s.sendError(sess, "A player name is required")
		return
	}

	player := game.NewPlayer(req.Name, false)
	snap, err := s.registry.JoinRoom(req.RoomID, player)
	if err != nil {
		s.sendError(sess, joinErrorMessage(err))
		return
	}
	sess.PlayerID = player.ID
	sess.RoomID = req.RoomID

	logger.Log.Infof("Session %s joined room %s as %s", sess.GetID(), req.RoomID, req.Name)

	resp := network.JoinRoomResponse{State: snap}
	for _, p := range snap.Players {
		if p.ID == player.ID {
			resp.Player = p
			break
		}
	}
	data, _ := json.Marshal(resp)
	sess.Send(network.MsgTypeJoinRoom, data)

	joined, _ := json.Marshal(network.PlayerJoinedEvent{Player: resp.Player})
	s.broadcaster.BroadcastToRoom(req.RoomID, network.MsgTypePlayerJoined, joined)
	s.broadcastState(req.RoomID, snap)
}

func joinErrorMessage(err error) string {
	switch err {
	case room.ErrRoomNotFound:
		return "Room not found"
	case room.ErrRoomFull:
		return "Room is full"
	case game.ErrGameAlreadyStarted:
		return "The game has already started"
	default:
		return err.Error()
	}
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	s.handleDeparture(sess)
	sess.RoomID = ""
	sess.PlayerID = ""
}

// handleDeparture applies the disconnect policy for whatever room the
// session is bound to. In the lobby the player is removed outright; in a
// running game the seat stays and is only flagged as disconnected.
func (s *GameServer) handleDeparture(sess *session.Session) {
	if sess.RoomID == "" {
		return
	}
	roomID, playerID := sess.RoomID, sess.PlayerID

	deleted := s.registry.HandleDisconnect(roomID, playerID)
	s.mon.SetActiveRooms(s.registry.Count())
	if deleted {
		logger.Log.Infof("Room %s deleted after last player left", roomID)
		return
	}

	left, _ := json.Marshal(network.PlayerLeftEvent{PlayerID: playerID})
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypePlayerLeft, left)
	if r, ok := s.registry.GetRoom(roomID); ok {
		s.broadcastState(roomID, r.Snapshot())
	}
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) {
	var req network.StartGameRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, ok := s.registry.GetRoom(req.RoomID)
	if !ok {
		s.sendError(sess, "Room not found")
		return
	}

	snap, err := r.StartGame()
	if err != nil {
		s.sendError(sess, startErrorMessage(err))
		return
	}

	logger.Log.Infof("Room %s started a game with %d players", req.RoomID, len(snap.Players))
	s.mon.IncGamesStarted()
	s.broadcastState(req.RoomID, snap)
}

func startErrorMessage(err error) string {
	switch err {
	case game.ErrNotEnoughPlayers:
		return "At least 2 players are needed to start"
	case game.ErrGameAlreadyStarted:
		return "The game has already started"
	default:
		return err.Error()
	}
}

func (s *GameServer) handleDrawCard(sess *session.Session, packet *network.Packet) {
	var req network.DrawCardRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, ok := s.registry.GetRoom(req.RoomID)
	if !ok {
		s.sendError(sess, "Room not found")
		return
	}

	card, penalty, snap, err := r.DrawCard(req.PlayerID)
	if err != nil {
		s.sendError(sess, drawErrorMessage(err))
		return
	}

	s.broadcastState(req.RoomID, snap)
	event, _ := json.Marshal(network.CardDrawnEvent{PlayerID: req.PlayerID, Card: card, Penalty: penalty})
	s.broadcaster.BroadcastToRoom(req.RoomID, network.MsgTypeCardDrawn, event)

	if snap.Phase == game.PhaseGameOver {
		s.mon.IncGamesCompleted()
		if err := s.statsService.RecordGameOver(snap, r.StartedAt()); err != nil && err != services.ErrStatsDisabled {
			logger.Log.Errorf("Failed to record finished game in room %s: %v", req.RoomID, err)
		}
	}
}

func drawErrorMessage(err error) string {
	switch err {
	case game.ErrGameNotActive:
		return "The game is not in progress"
	case game.ErrNotYourTurn:
		return "It is not your turn"
	case game.ErrPendingAction:
		return "An action must be resolved first"
	case game.ErrDeckExhausted:
		return "Internal game error"
	default:
		return err.Error()
	}
}

func (s *GameServer) handleSelectTarget(sess *session.Session, packet *network.Packet) {
	var req network.SelectTargetRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, ok := s.registry.GetRoom(req.RoomID)
	if !ok {
		s.sendError(sess, "Room not found")
		return
	}

	snap := r.SelectTarget(req.PlayerID, req.TargetID)
	s.broadcastState(req.RoomID, snap)
}

func (s *GameServer) handleUseShield(sess *session.Session, packet *network.Packet) {
	var req network.UseShieldRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, ok := s.registry.GetRoom(req.RoomID)
	if !ok {
		s.sendError(sess, "Room not found")
		return
	}

	snap := r.UseShield(req.PlayerID, req.UseIt)
	s.broadcastState(req.RoomID, snap)
}

func (s *GameServer) broadcastState(roomID string, snap game.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		logger.Log.Errorf("Failed to marshal state for room %s: %v", roomID, err)
		return
	}
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypeGameState, data)
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(network.ErrorResponse{Error: message})
	sess.Send(network.MsgTypeError, data)
}
