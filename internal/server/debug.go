package server

import (
	"encoding/json"
	"net/http"

	"dungeon-dash-server/internal/engine"
)

// DebugHandler предоставляет доступ к внутреннему состоянию комнат
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/rooms", h.handleListRooms)
	mux.HandleFunc("/debug/room", h.handleRoom)
	mux.HandleFunc("/debug/floor", h.handleFloor)
}

// /debug/rooms - снимки всех комнат: фаза, игроки, метрики
func (h *DebugHandler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.Rooms())
}

// /debug/room?room=ID - снимок одной комнаты
func (h *DebugHandler) handleRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.Service.Room(r.URL.Query().Get("room"))
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, room.Info())
}

// /debug/floor?room=ID - текущий этаж комнаты целиком (слои, дерево, спавны)
func (h *DebugHandler) handleFloor(w http.ResponseWriter, r *http.Request) {
	room, ok := h.Service.Room(r.URL.Query().Get("room"))
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	floor := room.Floor()
	if floor == nil {
		http.Error(w, "Floor not generated", http.StatusNotFound)
		return
	}
	// Этаж после установки не меняется, читать его из чужой горутины можно.
	writeJSON(w, floor)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	// Разрешаем запросы с любого источника (нужно для локального debug-клиента)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
