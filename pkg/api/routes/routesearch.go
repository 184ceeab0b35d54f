package routes

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/railconnect/railconnect/pkg/routecache"
	"github.com/railconnect/railconnect/pkg/routeformat"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/rs/zerolog/log"
)

// statusClientClosedRequest is the nginx convention for a client that disconnected before the response
const statusClientClosedRequest = 499

// RouteSearch serves /api/routes. Cache is optional.
type RouteSearch struct {
	Store  *timetable.Store
	Engine *routesearch.Engine
	Cache  *routecache.Cache
}

func RoutesRouter(router fiber.Router, routeSearch *RouteSearch) {
	router.Get("/", routeSearch.getRoutes)
}

func (r *RouteSearch) getRoutes(c *fiber.Ctx) error {
	snapshot := r.Store.Snapshot()
	if snapshot == nil {
		return sendError(c, fiber.StatusServiceUnavailable, "timetable not loaded")
	}

	request, err := r.parseRequest(c)
	if err != nil {
		return r.sendSearchError(c, err)
	}

	query, err := r.Engine.Validate(snapshot, request)
	if err != nil {
		return r.sendSearchError(c, err)
	}

	ctx := c.UserContext()
	var body []byte
	cached := false

	if r.Cache != nil {
		body, cached, err = r.Cache.GetOrCompute(ctx, routecache.Key(snapshot.Version(), r.Engine.Options(), query), func() ([]byte, error) {
			return r.search(ctx, snapshot, query)
		})
	} else {
		body, err = r.search(ctx, snapshot, query)
	}
	if err != nil {
		return r.sendSearchError(c, err)
	}

	if cached {
		searchCount.WithLabelValues(outcomeCached).Inc()
	} else {
		searchCount.WithLabelValues(outcomeOK).Inc()
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (r *RouteSearch) parseRequest(c *fiber.Ctx) (routesearch.Request, error) {
	request := routesearch.Request{
		Origin:      c.Query("source"),
		Destination: c.Query("destination"),
	}

	dateString := c.Query("date")
	if dateString == "" {
		return request, &routesearch.InvalidRequestError{Reason: "Parameter date is required"}
	}
	date, err := util.ParseDate(dateString)
	if err != nil {
		return request, &routesearch.InvalidRequestError{Reason: err.Error()}
	}
	request.Date = date

	if request.Criterion, err = routesearch.ParseCriterion(c.Query("criteria")); err != nil {
		return request, err
	}

	if request.Switches, err = routesearch.ParseSwitches(c.Query("switches"), r.Engine.Options().DefaultSwitches); err != nil {
		return request, err
	}

	return request, nil
}

// search runs the engine and encodes the formatted response
func (r *RouteSearch) search(ctx context.Context, snapshot *timetable.Snapshot, query *routesearch.Query) ([]byte, error) {
	startTime := time.Now()
	defer func() { searchLatency.Observe(time.Since(startTime).Seconds()) }()

	result, err := r.Engine.Run(ctx, snapshot, query)
	if err != nil {
		return nil, err
	}

	return routeformat.Marshal(result)
}

func (r *RouteSearch) sendSearchError(c *fiber.Ctx, err error) error {
	var invalidRequest *routesearch.InvalidRequestError

	switch {
	case errors.As(err, &invalidRequest):
		searchCount.WithLabelValues(outcomeInvalid).Inc()
		return sendError(c, fiber.StatusBadRequest, invalidRequest.Reason)
	case errors.Is(err, routesearch.ErrSearchTimeout):
		searchCount.WithLabelValues(outcomeTimeout).Inc()
		return sendError(c, fiber.StatusGatewayTimeout, "search timed out")
	case errors.Is(err, routesearch.ErrSearchCanceled):
		// The client has gone so nobody reads this response
		searchCount.WithLabelValues(outcomeCanceled).Inc()
		log.Debug().Err(err).Str("path", c.Path()).Msg("Route search canceled by client")
		return sendError(c, statusClientClosedRequest, "request canceled")
	default:
		searchCount.WithLabelValues(outcomeError).Inc()
		log.Error().Err(err).Msg("Route search failed")
		return sendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
