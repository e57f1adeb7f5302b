package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/FawziYas/osce-project/internal/domain/model"
)

// API is the slice of the remote client entries replay through.
type API interface {
	PostItemScore(ctx context.Context, stationScoreID, checklistItemID string, score, maxPoints float64) error
	Call(ctx context.Context, method, path string, body []byte) error
}

type apiReplayer struct {
	api API
}

// NewReplayer dispatches queue entries to the remote API by kind.
func NewReplayer(api API) Replayer {
	return &apiReplayer{api: api}
}

func (r *apiReplayer) Replay(ctx context.Context, entry model.SyncQueueEntry) error {
	switch entry.Kind {
	case model.KindItemScore:
		var p model.ItemScorePayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return errors.Wrap(err, "decode item score payload")
		}
		return r.api.PostItemScore(ctx, p.StationScoreID, p.ChecklistItemID, p.Score, p.MaxPoints)

	case model.KindGlobalRating:
		var p model.GlobalRatingPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return errors.Wrap(err, "decode global rating payload")
		}
		body, err := json.Marshal(map[string]int{"rating": p.Rating})
		if err != nil {
			return errors.Wrap(err, "marshal global rating")
		}
		return r.api.Call(ctx, http.MethodPost, fmt.Sprintf("/score/%s/rating", p.StationScoreID), body)

	case model.KindAPICall:
		var p model.APICallPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return errors.Wrap(err, "decode api call payload")
		}
		return r.api.Call(ctx, p.Method, p.Path, p.Body)

	default:
		return errors.Errorf("unknown queue entry kind %q", entry.Kind)
	}
}
