package opennotify

import "github.com/okian/isstrack/internal/domain/model"

// Response shapes as served by api.open-notify.org. Only consumed fields are declared.

type astrosResponse struct {
	Number int               `json:"number"`
	People []model.Astronaut `json:"people"`
}

type nowResponse struct {
	Position struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
	Timestamp *int64 `json:"timestamp"`
}

type passEntry struct {
	RiseTime int64 `json:"risetime"`
	Duration int64 `json:"duration"`
}

type passResponse struct {
	Response []passEntry `json:"response"`
}
