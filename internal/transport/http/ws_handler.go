package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler pushes the category document to connected editors whenever it is saved.
type WSHandler struct {
	catalog  *app.CatalogService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(catalog *app.CatalogService, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		catalog: catalog,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type documentPayload struct {
	Categories domain.CategoryTree `json:"categories"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// ServeWS upgrades the request and streams "categories" messages until the peer disconnects.
// Inbound frames are read only to notice the close.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.catalog.Subscribe(r.Context())
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case doc, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			msg := outboundMessage[documentPayload]{
				Type:    "categories",
				Payload: documentPayload{Categories: doc.Categories, UpdatedAt: doc.UpdatedAt},
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-readerDone:
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimRight(o, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}
