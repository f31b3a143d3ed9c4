package identd

import (
	"net/http"
	"time"

	"github.com/PavelPerna/prefsync/pkg/notify"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// options for gorilla connection upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// updateListener bridges the update hub onto one websocket connection.
type updateListener struct {
	hub  *notify.Hub[Update]
	c    chan Update
	user string // restrict feed to one user, "" == all users
}

// newUpdateListener creates a listener and registers it.  Optional user
// parameter restricts updates sent to the socket to that user only.
func newUpdateListener(hub *notify.Hub[Update], user string) *updateListener {
	ul := &updateListener{
		hub:  hub,
		c:    make(chan Update, 100),
		user: user,
	}
	hub.AddListener(ul)
	return ul
}

// Receive handles an incoming update from the hub.
func (ul *updateListener) Receive(update Update) error {
	if ul.user != "" && ul.user != update.User {
		return nil
	}
	ul.c <- update
	return nil
}

// WSReader makes sure the websocket client is still connected, discards any
// messages from the client.
func (ul *updateListener) WSReader(conn *websocket.Conn) {
	slog := log.With().Str("module", "identd").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Logger()
	defer ul.Close()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				slog.Warn().Err(err).Msg("Socket error")
			} else {
				slog.Debug().Msg("Closing socket")
			}
			break
		}
	}
}

// WSWriter relays hub updates to the peer until the listener closes.
func (ul *updateListener) WSWriter(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ul.Close()
	}()

	for {
		select {
		case update, ok := <-ul.c:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if conn.WriteJSON(update) != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if conn.WriteMessage(websocket.PingMessage, []byte{}) != nil {
				return
			}
		}
	}
}

// Close removes the listener registration.
func (ul *updateListener) Close() {
	select {
	case <-ul.c:
		// Already closed
	default:
		ul.hub.RemoveListener(ul)
		close(ul.c)
	}
}

// monitorPreferences upgrades the connection to a websocket and notifies
// the client of preference updates as they are stored.  An optional ?user=
// query restricts the feed to one account.
func (s *Server) monitorPreferences(w http.ResponseWriter, req *http.Request) error {
	if s.hub == nil {
		http.Error(w, "monitoring disabled", http.StatusNotFound)
		return nil
	}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	log.Debug().Str("module", "identd").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Msg("Upgraded to WebSocket")
	ul := newUpdateListener(s.hub, req.URL.Query().Get("user"))
	go ul.WSWriter(conn)
	ul.WSReader(conn)
	return nil
}
