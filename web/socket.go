// ABOUTME: Websocket push channel for the markdown editor's live preview.
// ABOUTME: Pushes the preview on connect, on renderer settle and after every input. Closing leaves the editor mounted.
package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/2389-research/splitview/component"
	"github.com/2389-research/splitview/loader"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

const (
	messagePreview = "preview"
	messageInput   = "input"
)

// socketMessage is the JSON frame exchanged in both directions.
type socketMessage struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	HTML  string `json:"html,omitempty"`
	Text  string `json:"text,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// previewClient is one websocket connection bound to one editor.
type previewClient struct {
	conn      *websocket.Conn
	editor    *component.Editor
	templates *TemplateEngine
	logger    *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	lastState loader.State
	pushed    bool
}

func (s *Server) handleEditorSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ed, ok := s.registry.Editor(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("instance", id), zap.Error(err))
		return
	}

	c := &previewClient{
		conn:      conn,
		editor:    ed,
		templates: s.templates,
		logger:    s.logger.With(zap.String("instance", id)),
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	c.push(false)
	ed.OnSettle(func(loader.State) { c.push(true) })

	c.readPump()
	c.close()
	wg.Wait()
	conn.Close()
}

func (c *previewClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// push renders the current preview and queues it. With onlyChanged set, a
// preview in the same load state as the last push is skipped. The whole push
// runs under c.mu so frames are queued in the order their state was read.
func (c *previewClient) push(onlyChanged bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.editor.Preview()
	if onlyChanged && c.pushed && c.lastState == view.State {
		return
	}

	var buf bytes.Buffer
	if err := c.templates.RenderPartialTo(&buf, "preview", view); err != nil {
		c.logger.Error("preview render failed", zap.Error(err))
		return
	}
	frame, err := json.Marshal(socketMessage{
		Type:  messagePreview,
		State: view.State.String(),
		HTML:  buf.String(),
	})
	if err != nil {
		c.logger.Error("encoding preview frame failed", zap.Error(err))
		return
	}
	c.lastState = view.State
	c.pushed = true

	// Each frame is a full preview, so a slow client only needs the newest.
	for {
		select {
		case c.send <- frame:
			return
		case <-c.done:
			return
		default:
		}
		select {
		case <-c.send:
			c.logger.Debug("stale preview frame replaced, client too slow")
		default:
		}
	}
}

func (c *previewClient) readPump() {
	c.conn.SetReadLimit(maxTextBytes + 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg socketMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("preview socket read failed", zap.Error(err))
			}
			return
		}
		switch msg.Type {
		case messageInput:
			c.editor.SetText(msg.Text)
			c.push(false)
		default:
			c.logger.Debug("ignoring socket message", zap.String("type", msg.Type))
		}
	}
}

func (c *previewClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("preview socket write failed", zap.Error(err))
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
