package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/cardserver/network"
)

var (
	addr     = flag.String("addr", "localhost:8080", "server address")
	name     = flag.String("name", "Player", "player name")
	joinCode = flag.String("room", "", "room code to join (empty creates a new room)")
)

// identity is filled in from the server's create/join response and read
// by the stdin loop when building commands.
type identity struct {
	mu       sync.Mutex
	roomID   string
	playerID string
}

func (id *identity) set(roomID, playerID string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.roomID = roomID
	id.playerID = playerID
}

func (id *identity) get() (string, string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.roomID, id.playerID
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func handleMessage(id *identity, msgID uint16, data []byte) {
	switch msgID {
	case network.MsgTypeCreateRoom:
		var resp network.CreateRoomResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			log.Printf("Bad create room response: %v", err)
			return
		}
		id.set(resp.RoomID, resp.Player.ID)
		log.Printf("Created room %s as %s (share the code with friends)", resp.RoomID, resp.Player.Name)
	case network.MsgTypeJoinRoom:
		var resp network.JoinRoomResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			log.Printf("Bad join room response: %v", err)
			return
		}
		id.set(resp.State.RoomID, resp.Player.ID)
		log.Printf("Joined room %s as %s", resp.State.RoomID, resp.Player.Name)
	case network.MsgTypeGameState:
		var snap struct {
			Phase                 string `json:"phase"`
			CurrentTurnPlayerID   string `json:"current_turn_player_id"`
			PendingAction         string `json:"pending_action"`
			DrawPileCount         int    `json:"draw_pile_count"`
			LastActionDescription string `json:"last_action_description"`
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("Bad state: %v", err)
			return
		}
		log.Printf("[%s] pile=%d pending=%s %s", snap.Phase, snap.DrawPileCount, snap.PendingAction, snap.LastActionDescription)
	case network.MsgTypeCardDrawn:
		var event network.CardDrawnEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		if event.Penalty != "" {
			log.Printf("Drawn: %s of %s  %s", event.Card.Rank, event.Card.Suit, event.Penalty)
		} else {
			log.Printf("Drawn: %s of %s", event.Card.Rank, event.Card.Suit)
		}
	case network.MsgTypeError:
		var resp network.ErrorResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		log.Printf("Server error: %s", resp.Error)
	default:
		log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
	}
}

func handleCommand(c *websocket.Conn, id *identity, text string) {
	roomID, playerID := id.get()
	if roomID == "" {
		log.Println("Not in a room yet.")
		return
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "start":
		err = send(c, network.MsgTypeStartGame, network.StartGameRequest{RoomID: roomID})
	case "draw":
		err = send(c, network.MsgTypeDrawCard, network.DrawCardRequest{RoomID: roomID, PlayerID: playerID})
	case "target":
		if len(fields) < 2 {
			log.Println("Usage: target <player_id>")
			return
		}
		err = send(c, network.MsgTypeSelectTarget, network.SelectTargetRequest{RoomID: roomID, PlayerID: playerID, TargetID: fields[1]})
	case "shield":
		useIt := len(fields) > 1 && fields[1] == "yes"
		err = send(c, network.MsgTypeUseShield, network.UseShieldRequest{RoomID: roomID, PlayerID: playerID, UseIt: useIt})
	case "leave":
		err = send(c, network.MsgTypeLeaveRoom, struct{}{})
	default:
		log.Println("Commands: start | draw | target <player_id> | shield yes|no | leave")
		return
	}
	if err != nil {
		log.Println("Write error:", err)
	}
}

func main() {
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	id := &identity{}
	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			handleMessage(id, msgID, message[4:])
		}
	}()

	if *joinCode != "" {
		log.Printf("Joining room %s...", *joinCode)
		err = send(c, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: strings.ToUpper(*joinCode), Name: *name})
	} else {
		log.Println("Creating a room...")
		err = send(c, network.MsgTypeCreateRoom, network.CreateRoomRequest{Name: *name})
	}
	if err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Client started. Commands: start | draw | target <player_id> | shield yes|no | leave")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			handleCommand(c, id, strings.TrimSpace(text))
		}
	}
}
