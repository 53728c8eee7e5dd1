// Package signal is the WebSocket transport for the room coordinator and
// the signaling relay. It owns the connections; the core never sees them.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/config"
	"github.com/nicksbar/YAHAML-sub001/internal/core"
	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	coord core.RoomCoordinator
	relay core.SignalRelay
	bus   core.EventSource
	cfg   *config.Config

	mu    sync.RWMutex
	conns map[domain.ParticipantID]*wsConn
}

func NewController(coord core.RoomCoordinator, relay core.SignalRelay, bus core.EventSource, cfg *config.Config) *Controller {
	return &Controller{
		coord: coord,
		relay: relay,
		bus:   bus,
		cfg:   cfg,
		conns: make(map[domain.ParticipantID]*wsConn),
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) trySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	pid := domain.ParticipantID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("participant", string(pid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	pingPeriod := ctl.cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	// The peer has slightly longer than a ping period to answer before the
	// read side gives up and the connection is torn down.
	pongWait := pingPeriod * 10 / 9
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.attach(pid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn, pingPeriod)
	go func() {
		defer cancel()
		ctl.readPump(ctx, pid, conn)
		ctl.disconnect(pid, conn)
	}()
}

func (ctl *Controller) attach(pid domain.ParticipantID, conn *wsConn) {
	ctl.mu.Lock()
	old := ctl.conns[pid]
	ctl.conns[pid] = conn
	ctl.mu.Unlock()
	if old != nil {
		log.Warn().Str("module", "signal").Str("participant", string(pid)).Msg("replacing existing connection")
		old.close()
	}
}

// disconnect treats a dropped transport as an explicit leave: the peer is
// unregistered and the membership removed. Both calls are safe to repeat,
// so races with an explicit leave or a room deletion are harmless.
func (ctl *Controller) disconnect(pid domain.ParticipantID, conn *wsConn) {
	ctl.mu.Lock()
	if ctl.conns[pid] == conn {
		delete(ctl.conns, pid)
	}
	ctl.mu.Unlock()

	if roomID, ok := ctl.coord.RoomOf(pid); ok {
		ctl.relay.UnregisterPeer(roomID, pid)
		ctl.coord.RemoveParticipant(roomID, pid)
	}
	log.Info().Str("module", "signal").Str("participant", string(pid)).Msg("disconnected")
}

func (ctl *Controller) connOf(pid domain.ParticipantID) (*wsConn, bool) {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	conn, ok := ctl.conns[pid]
	return conn, ok
}
