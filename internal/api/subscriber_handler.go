package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/segment"
	"github.com/sungwon/campaign-dispatch/internal/storage"
)

// SubscriberStore is the subset of the subscriber repository the API uses.
type SubscriberStore interface {
	Get(ctx context.Context, id string) (*segment.Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*segment.Subscriber, error)
	List(ctx context.Context, limit, offset int) ([]*segment.Subscriber, error)
	ListByGroups(ctx context.Context, groups []string, matchAll bool) ([]*segment.Subscriber, error)
	Each(ctx context.Context, fn func(*segment.Subscriber) error) error
	UpdateGroups(ctx context.Context, id string, groups []string) error
}

// subscriberListResponse is the JSON response for GET /api/v1/subscribers.
type subscriberListResponse struct {
	Subscribers []*segment.Subscriber `json:"subscribers"`
	Count       int                   `json:"count"`
}

// regroupRequest is the JSON body for POST /api/v1/subscribers/regroup.
// An empty id list regroups every subscriber.
type regroupRequest struct {
	IDs []string `json:"ids"`
}

type regroupResponse struct {
	Evaluated int `json:"evaluated"`
	Updated   int `json:"updated"`
}

// ListSubscribersHandler handles GET /api/v1/subscribers.
// With one or more group parameters it returns members of any (match=any,
// default) or all (match=all) of them; otherwise it pages through every
// subscriber using limit and offset. An email parameter looks up a single
// address instead. The status, list, range and activity parameters further
// narrow the result.
func ListSubscribersHandler(store SubscriberStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		groups := q["group"]

		criteria := segment.Criteria{
			Lists:     q["list"],
			DateRange: q.Get("range"),
			Activity:  q.Get("activity"),
		}
		for _, s := range q["status"] {
			criteria.Statuses = append(criteria.Statuses, segment.Status(s))
		}
		if err := criteria.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var (
			subs []*segment.Subscriber
			err  error
		)
		switch {
		case q.Get("email") != "":
			var sub *segment.Subscriber
			sub, err = store.GetByEmail(r.Context(), q.Get("email"))
			if err == nil {
				subs = []*segment.Subscriber{sub}
			} else if errors.Is(err, storage.ErrSubscriberNotFound) {
				err = nil
			}
		case len(groups) > 0:
			matchAll := false
			switch q.Get("match") {
			case "", "any":
			case "all":
				matchAll = true
			default:
				respondError(w, http.StatusBadRequest, "match must be any or all")
				return
			}
			subs, err = store.ListByGroups(r.Context(), groups, matchAll)
		default:
			limit, lerr := queryInt(q.Get("limit"), storage.DefaultPageSize)
			offset, oerr := queryInt(q.Get("offset"), 0)
			if lerr != nil || oerr != nil || limit <= 0 || offset < 0 {
				respondError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
				return
			}
			subs, err = store.List(r.Context(), limit, offset)
		}
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Strs("groups", groups).Msg("failed to list subscribers")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		subs = segment.Filter(subs, criteria, time.Now())
		if subs == nil {
			subs = []*segment.Subscriber{}
		}
		respondJSON(w, http.StatusOK, subscriberListResponse{Subscribers: subs, Count: len(subs)})
	}
}

// GetSubscriberHandler handles GET /api/v1/subscribers/{id}.
func GetSubscriberHandler(store SubscriberStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sub, err := store.Get(r.Context(), id)
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			respondError(w, http.StatusNotFound, "subscriber not found")
			return
		}
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("subscriber_id", id).Msg("failed to load subscriber")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondJSON(w, http.StatusOK, sub)
	}
}

// RegroupSubscribersHandler handles POST /api/v1/subscribers/regroup.
// It reclassifies the selected subscribers and stores group sets that
// changed.
func RegroupSubscribersHandler(store SubscriberStore, classifier *segment.Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req regroupRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				respondError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		subs, err := selectSubscribers(r.Context(), store, req.IDs)
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			respondError(w, http.StatusNotFound, "subscriber not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to load subscribers for regroup")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		// Updates run after iteration so Each never holds a connection
		// while another is needed for the write.
		resp := regroupResponse{Evaluated: len(subs)}
		for _, sub := range subs {
			next := classifier.Regroup(*sub)
			if sameGroups(sub.Groups, next.Groups) {
				continue
			}
			if err := store.UpdateGroups(r.Context(), sub.ID, next.Groups); err != nil {
				log.Error().Err(err).Str("subscriber_id", sub.ID).Msg("failed to update subscriber groups")
				respondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			resp.Updated++
		}

		log.Info().Int("evaluated", resp.Evaluated).Int("updated", resp.Updated).Msg("subscribers regrouped")
		respondJSON(w, http.StatusOK, resp)
	}
}

func selectSubscribers(ctx context.Context, store SubscriberStore, ids []string) ([]*segment.Subscriber, error) {
	if len(ids) == 0 {
		var subs []*segment.Subscriber
		err := store.Each(ctx, func(s *segment.Subscriber) error {
			subs = append(subs, s)
			return nil
		})
		return subs, err
	}

	subs := make([]*segment.Subscriber, 0, len(ids))
	for _, id := range ids {
		sub, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// sameGroups reports whether a and b hold the same labels, ignoring order.
func sameGroups(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, g := range a {
		seen[g]++
	}
	for _, g := range b {
		if seen[g] == 0 {
			return false
		}
		seen[g]--
	}
	return true
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
