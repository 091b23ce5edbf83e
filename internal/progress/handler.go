package progress

import (
	"net/http"
	"time"

	"deepscan/internal/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewerHandler upgrades a viewer connection and keeps it registered until it
// drops.
func ViewerHandler(hub *Hub, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
	}
}

// Serve starts the hub loop and the viewer endpoint on addr in the
// background. The server lives for the rest of the run.
func Serve(addr string, hub *Hub, log *logger.Logger) {
	go hub.Run()

	mux := http.NewServeMux()
	mux.Handle("/ws", ViewerHandler(hub, log))

	go func() {
		log.Info("Progress viewers: ws://%s/ws", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Progress server stopped: %v", err)
		}
	}()
}
