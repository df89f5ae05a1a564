package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/CrowderSoup/lists-app/database"
	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/services"
)

// ItemHandler serves the signed-in user's items and pushes a fresh
// snapshot to that user's sockets after every write
type ItemHandler struct {
	store    *database.ItemStore
	hub      *services.Hub
	upgrader websocket.Upgrader

	// registered runs after a socket joins the hub, before its first snapshot is read
	registered func(owner string)
}

// NewItemHandler builds the item endpoints. Websocket upgrades from a browser
// are only accepted from allowedOrigins; "*" allows any origin.
func NewItemHandler(store *database.ItemStore, hub *services.Hub, allowedOrigins []string) *ItemHandler {
	return &ItemHandler{
		store: store,
		hub:   hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header, which is what
// terminal clients send, and otherwise only the listed origins
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		log.Printf("Rejected WebSocket origin: %s", origin)
		return false
	}
}

func (h *ItemHandler) snapshotMessage(owner string) (services.WebSocketMessage, error) {
	snap, err := h.store.ListItems(owner)
	if err != nil {
		return services.WebSocketMessage{}, err
	}
	return services.WebSocketMessage{Type: "snapshot", Data: snap}, nil
}

func (h *ItemHandler) publish(owner string) {
	msg, err := h.snapshotMessage(owner)
	if err != nil {
		log.Printf("Error loading snapshot for %s: %v", owner, err)
		return
	}
	h.hub.Publish(owner, msg)
}

// List returns the complete item set of the caller
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	snap, err := h.store.ListItems(claims.UID)
	if err != nil {
		log.Printf("Error listing items: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   snap,
	})
}

// Create stores a new item owned by the caller
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	var it items.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if it.Owner != "" && it.Owner != claims.UID {
		http.Error(w, "items can only be created for yourself", http.StatusForbidden)
		return
	}

	created, err := h.store.CreateItem(claims.UID, it)
	if err != nil {
		log.Printf("Error creating item: %v", err)
		http.Error(w, "Failed to save item", http.StatusInternalServerError)
		return
	}
	h.publish(claims.UID)

	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "success",
		"id":     created.ID,
	})
}

// Update applies a partial update to one of the caller's items
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	var p items.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if p.Empty() {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	_, err := h.store.UpdateItem(claims.UID, mux.Vars(r)["id"], p)
	var verr *items.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error updating item: %v", err)
		http.Error(w, "Failed to save item", http.StatusInternalServerError)
		return
	}
	h.publish(claims.UID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Delete removes one of the caller's items
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	err := h.store.DeleteItem(claims.UID, mux.Vars(r)["id"])
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error deleting item: %v", err)
		http.Error(w, "Failed to delete item", http.StatusInternalServerError)
		return
	}
	h.publish(claims.UID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// HandleWebSocket upgrades the connection and sends the caller's snapshot
// right away, then every time it changes
func (h *ItemHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// The snapshot is read only after the client is registered, so any write
	// committed after the read is also published to this connection.
	client := services.NewClient(h.hub, conn, claims.UID)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	log.Printf("WebSocket client registered: %s (%d open)", claims.Email, h.hub.Connected(claims.UID))

	if h.registered != nil {
		h.registered(claims.UID)
	}

	msg, err := h.snapshotMessage(claims.UID)
	if err != nil {
		log.Printf("Error loading snapshot for %s: %v", claims.UID, err)
		h.hub.Unregister(client)
		return
	}
	h.hub.Reply(client, msg)
}
