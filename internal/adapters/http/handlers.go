package http

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapsearch/internal/adapters/memory"
	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/geospatial"
)

const (
	defaultRadius = 1000.0
	maxRadius     = 50000.0
)

var errMissingEdges = errors.New("north, west, south and east are required")

// bboxRequest is a viewport sent as JSON. Every edge is required, so an
// empty object is rejected instead of read as a zero box.
type bboxRequest struct {
	North *float64 `json:"north"`
	West  *float64 `json:"west"`
	South *float64 `json:"south"`
	East  *float64 `json:"east"`
}

func (r *bboxRequest) toBBox() (domain.BoundingBox, error) {
	if r == nil || r.North == nil || r.West == nil || r.South == nil || r.East == nil {
		return domain.BoundingBox{}, errMissingEdges
	}
	return domain.BoundingBox{North: *r.North, West: *r.West, South: *r.South, East: *r.East}, nil
}

// validateBBox rejects boxes that cannot be turned into a query.
func validateBBox(b domain.BoundingBox) error {
	for _, v := range []float64{b.North, b.West, b.South, b.East} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("coordinates must be finite numbers")
		}
	}
	if b.North > 90 || b.South < -90 {
		return errors.New("latitudes must be within [-90, 90]")
	}
	if b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return errors.New("longitudes must be within [-180, 180]")
	}
	if b.North < b.South {
		return errors.New("north must not be below south")
	}
	return nil
}

func queryFloat(c *fiber.Ctx, key string) (float64, bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
	return v, true, nil
}

// bboxFromQuery reads north/west/south/east, or lat/lon/radius.
func bboxFromQuery(c *fiber.Ctx) (domain.BoundingBox, error) {
	if c.Query("lat") != "" || c.Query("lon") != "" {
		lat, okLat, err := queryFloat(c, "lat")
		if err != nil {
			return domain.BoundingBox{}, err
		}
		lon, okLon, err := queryFloat(c, "lon")
		if err != nil {
			return domain.BoundingBox{}, err
		}
		if !okLat || !okLon {
			return domain.BoundingBox{}, errors.New("lat and lon are required together")
		}
		if lat < -90 || lat > 90 {
			return domain.BoundingBox{}, errors.New("lat must be within [-90, 90]")
		}
		radius := c.QueryFloat("radius", defaultRadius)
		if radius <= 0 || radius > maxRadius {
			return domain.BoundingBox{}, fmt.Errorf("radius must be between 1 and %.0f meters", maxRadius)
		}
		return geospatial.BoundingBox(lat, lon, radius), nil
	}

	var b domain.BoundingBox
	for _, f := range []struct {
		key string
		dst *float64
	}{{"north", &b.North}, {"west", &b.West}, {"south", &b.South}, {"east", &b.East}} {
		v, ok, err := queryFloat(c, f.key)
		if err != nil {
			return b, err
		}
		if !ok {
			return b, errMissingEdges
		}
		*f.dst = v
	}
	return b, nil
}

// ViewportHandler runs one viewport search and returns the rendered listing.
// POST takes a JSON box; GET takes the box (or a point and radius) as query
// parameters.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	ctrl := usecases.NewViewportSearchController(deps.Viewport, deps.Search, nil)

	return func(c *fiber.Ctx) error {
		var (
			bbox domain.BoundingBox
			err  error
		)
		if c.Method() == fiber.MethodPost {
			var req bboxRequest
			if perr := c.BodyParser(&req); perr != nil {
				return errBadRequest(c, "invalid request body")
			}
			if bbox, err = req.toBBox(); err != nil {
				return errBadRequest(c, err.Error())
			}
		} else if bbox, err = bboxFromQuery(c); err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := validateBBox(bbox); err != nil {
			return errBadRequest(c, err.Error())
		}

		view, err := ctrl.Refresh(c.UserContext(), bbox)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("viewport refresh failed", "error", err)
			return errBadGateway(c, memory.LoadErrorMessage)
		}
		if view.Entries == nil {
			view.Entries = []domain.ListingEntry{}
		}
		return c.JSON(view)
	}
}

// MarkersHandler returns the seeded markers, paginated.
func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Markers.Markers(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := pageParams(c, len(markers))
		start, end := pg.window()
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: markers[start:end], Pagination: pg})
	}
}

// SearchProxyHandler forwards a collection search to the index. POST sends
// the body as a query; GET uses the q query-string parameter.
func SearchProxyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Proxy == nil {
			return errUnavailable(c, "search index not configured")
		}

		var body []byte
		if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
			body = append([]byte(nil), c.Body()...)
		}

		results, err := deps.Proxy.Search(c.UserContext(), c.Params("bucket"), c.Params("collection"), body, c.Query("q"))
		var qerr *domain.QueryError
		switch {
		case errors.As(err, &qerr):
			return errInvalidParameters(c, qerr.Message, qerr.Details)
		case err != nil:
			return errInternal(c, err.Error())
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(results)
	}
}
