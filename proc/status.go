package proc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const serviceName = "rmusico"

// BotState reports gateway connectivity and guild count.
type BotState func() (connected bool, guilds int)

type sessionStatus struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	Current   string `json:"current_song,omitempty"`
	QueueSize int    `json:"queue_size"`
	Paused    bool   `json:"paused"`
	Loop      bool   `json:"loop"`
	Volume    int    `json:"volume"`
}

type statusResponse struct {
	Connected      bool            `json:"connected"`
	Guilds         int             `json:"guilds"`
	VoiceConnected int             `json:"voice_connected"`
	CurrentSong    *string         `json:"current_song"`
	QueueSize      int             `json:"queue_size"`
	CacheSize      int             `json:"cache_size"`
	FailedSize     int             `json:"failed_size"`
	Sessions       []sessionStatus `json:"sessions"`
}

// StatusServer exposes /health and /api/status as JSON.
type StatusServer struct {
	manager *Manager
	state   BotState
	srv     *http.Server
}

func NewStatusServer(addr string, m *Manager, state BotState) *StatusServer {
	s := &StatusServer{manager: m, state: state}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /api/status", s.status)
	s.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *StatusServer) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx ends.
func (s *StatusServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *StatusServer) health(w http.ResponseWriter, _ *http.Request) {
	connected, _ := s.botState()
	writeJSON(w, map[string]any{
		"status":        "healthy",
		"bot_connected": connected,
		"service":       serviceName,
	})
}

func (s *StatusServer) status(w http.ResponseWriter, _ *http.Request) {
	connected, guilds := s.botState()
	resp := statusResponse{Connected: connected, Guilds: guilds, Sessions: []sessionStatus{}}

	for _, sess := range s.manager.Sessions() {
		snap, err := sess.Snapshot(0)
		if err != nil {
			continue
		}
		st := sessionStatus{
			GuildID:   snap.GuildID.String(),
			ChannelID: snap.ChannelID.String(),
			QueueSize: snap.Size,
			Paused:    snap.Paused,
			Loop:      snap.Loop,
			Volume:    snap.Volume,
		}
		if rec, ok := snap.Current.Get(); ok {
			st.Current = rec.Title
			if resp.CurrentSong == nil {
				title := rec.Title
				resp.CurrentSong = &title
			}
		}
		resp.VoiceConnected++
		resp.QueueSize += snap.Size
		resp.Sessions = append(resp.Sessions, st)
	}
	if r := s.manager.Resolver; r != nil {
		resp.CacheSize = r.Cache().Len()
		resp.FailedSize = r.Failed().Len()
	}
	writeJSON(w, resp)
}

func (s *StatusServer) botState() (bool, int) {
	if s.state == nil {
		return false, 0
	}
	return s.state()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
