// Package fakenotify is a local stand-in for the Open Notify API. It serves
// the crew, position and pass endpoints from a synthetic circular orbit so the
// tracker can run offline and in tests.
package fakenotify

import (
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/isstrack/internal/domain/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

type crewResponse struct {
	Message string            `json:"message"`
	Number  int               `json:"number"`
	People  []model.Astronaut `json:"people"`
}

type nowResponse struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Position  struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
}

type passEntry struct {
	RiseTime int64 `json:"risetime"`
	Duration int64 `json:"duration"`
}

type passResponse struct {
	Message  string      `json:"message"`
	Request  passRequest `json:"request"`
	Response []passEntry `json:"response"`
}

type passRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	DateTime  int64   `json:"datetime"`
	Passes    int     `json:"passes"`
}

type errorResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Server serves the stand-in endpoints.
type Server struct {
	cfg Config
}

// NewServer creates a Server. Zero-valued fields fall back to DefaultConfig.
func NewServer(cfg Config) *Server {
	def := DefaultConfig()
	if cfg.Crew == nil {
		cfg.Crew = def.Crew
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = def.Epoch
	}
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.Inclination == 0 {
		cfg.Inclination = def.Inclination
	}
	if cfg.Passes <= 0 {
		cfg.Passes = def.Passes
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Server{cfg: cfg}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/astros.json", s.handleCrew)
	mux.HandleFunc("/iss-now.json", s.handleNow)
	mux.HandleFunc("/iss-pass.json", s.handlePass)
	return mux
}

func (s *Server) handleCrew(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, crewResponse{Message: "success", Number: len(s.cfg.Crew), People: s.cfg.Crew})
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	now := s.cfg.Now()
	pos := s.cfg.GroundTrack(now)

	var resp nowResponse
	resp.Message = "success"
	resp.Timestamp = now.Unix()
	resp.Position.Latitude = strconv.FormatFloat(pos.Latitude, 'f', 4, 64)
	resp.Position.Longitude = strconv.FormatFloat(pos.Longitude, 'f', 4, 64)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePass(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	obs := model.Observer{Latitude: lat, Longitude: lon}
	if errLat != nil || errLon != nil || obs.Validate() != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "failure", Reason: "lat and lon must be valid coordinates"})
		return
	}

	now := s.cfg.Now()
	// The first entry is a zero-duration metadata record, as upstream does.
	entries := []passEntry{{RiseTime: now.Unix(), Duration: 0}}
	for _, p := range s.cfg.NextPasses(obs, now, s.cfg.Passes) {
		entries = append(entries, passEntry{RiseTime: p.RiseTime.Unix(), Duration: int64(p.Duration / time.Second)})
	}

	writeJSON(w, http.StatusOK, passResponse{
		Message:  "success",
		Request:  passRequest{Latitude: lat, Longitude: lon, DateTime: now.Unix(), Passes: s.cfg.Passes},
		Response: entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
