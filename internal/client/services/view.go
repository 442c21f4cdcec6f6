package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/eventsplatform/internal/client/api"
	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
)

// ErrNoData is returned for views that have nothing to fetch.
var ErrNoData = errors.New("view has no remote data")

// dataPaths maps guarded views to the GET that backs them.
var dataPaths = map[guard.View]string{
	guard.ViewEvents:        "/events/events/",
	guard.ViewMyEnrollments: "/events/enrollments/upcoming/",
	guard.ViewMyEvents:      "/events/events/my_events/",
}

// ViewService loads the remote data behind a view.
type ViewService struct {
	client api.Client
}

func NewViewService(client api.Client) *ViewService {
	return &ViewService{client: client}
}

// Load fetches the data of v. A 401 surfaces as api.ErrUnauthorized after
// the transport already tore the session down.
func (s *ViewService) Load(ctx context.Context, v guard.View) (json.RawMessage, error) {
	path, ok := dataPaths[v]
	if !ok {
		return nil, ErrNoData
	}
	return s.client.Fetch(ctx, path)
}
