package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/geo-dashboard/internal/dashboard"
	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
	"github.com/i474232898/geo-dashboard/internal/present"
	"github.com/i474232898/geo-dashboard/internal/selection"
	"github.com/i474232898/geo-dashboard/internal/store"
	"github.com/i474232898/geo-dashboard/internal/trees"
)

var validate = validator.New()

// Options tunes route behaviour.
type Options struct {
	// WaitTimeout bounds ?wait=1 requests.
	WaitTimeout time.Duration
	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, manager *dashboard.Manager, opts Options) {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = selection.DefaultFetchTimeout
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}

	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		q := c.Query("q")
		return c.JSON(fiber.Map{
			"query":     q,
			"locations": manager.Registry().Search(q),
		})
	})

	v1.Get("/aqi/colors", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"breakpoints": present.Legend()})
	})

	v1.Get("/trees", func(c *fiber.Ctx) error {
		climate := c.Query("climate")
		list, err := trees.Filter(climate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("unknown climate %q; use one of %s", climate, strings.Join(trees.Climates, ", ")))
		}
		return c.JSON(fiber.Map{
			"climate":  climate,
			"climates": trees.Climates,
			"trees":    list,
		})
	})

	v1.Post("/views", func(c *fiber.Ctx) error {
		var req createViewRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := manager.Create(c.UserContext(), req.Source)
		if err != nil {
			if errors.Is(err, mapsurface.ErrWidgetUnavailable) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":       true,
					"message":     err.Error(),
					"placeholder": true,
				})
			}
			return viewError(err)
		}

		if c.QueryBool("wait") {
			waitIdle(c, view, opts.WaitTimeout)
		}
		return c.Status(fiber.StatusCreated).JSON(view.State())
	})

	v1.Get("/views/:id", func(c *fiber.Ctx) error {
		view, err := manager.Get(c.Params("id"))
		if err != nil {
			return viewError(err)
		}
		if c.QueryBool("wait") {
			waitIdle(c, view, opts.WaitTimeout)
		}
		return c.JSON(view.State())
	})

	v1.Delete("/views/:id", func(c *fiber.Ctx) error {
		if err := manager.Delete(c.Params("id")); err != nil {
			return viewError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/views/:id/select", func(c *fiber.Ctx) error {
		view, err := manager.Get(c.Params("id"))
		if err != nil {
			return viewError(err)
		}

		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := req.validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if req.Name != "" {
			err = view.SelectByName(c.UserContext(), req.Name)
		} else {
			err = view.SelectCoordinates(*req.Latitude, *req.Longitude)
		}
		if err != nil {
			return viewError(err)
		}

		if c.QueryBool("wait") {
			waitIdle(c, view, opts.WaitTimeout)
		}
		return c.JSON(view.State())
	})

	v1.Post("/views/:id/geolocate", func(c *fiber.Ctx) error {
		view, err := manager.Get(c.Params("id"))
		if err != nil {
			return viewError(err)
		}

		var pos selection.ReportedPosition
		if err := c.BodyParser(&pos); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(pos); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := view.Geolocate(c.UserContext(), pos); err != nil {
			return viewError(err)
		}

		if c.QueryBool("wait") {
			waitIdle(c, view, opts.WaitTimeout)
		}
		return c.JSON(view.State())
	})

	v1.Put("/views/:id/source", func(c *fiber.Ctx) error {
		view, err := manager.Get(c.Params("id"))
		if err != nil {
			return viewError(err)
		}

		var req sourceRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := view.SetSource(req.Source); err != nil {
			return viewError(err)
		}
		if c.QueryBool("wait") {
			waitIdle(c, view, opts.WaitTimeout)
		}
		return c.JSON(view.State())
	})

	v1.Get("/views/:id/overlay", func(c *fiber.Ctx) error {
		view, err := manager.Get(c.Params("id"))
		if err != nil {
			return viewError(err)
		}

		fc, err := view.Overlay()
		if err != nil {
			return viewError(err)
		}
		if err := c.JSON(fc); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return nil
	})

	v1.Get("/views/:id/events", func(c *fiber.Ctx) error {
		view, err := manager.Get(c.Params("id"))
		if err != nil {
			return viewError(err)
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		ctx, cancel := context.WithCancel(context.Background())
		events := view.Subscribe(ctx)
		initial := view.State()

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			streamEvents(w, initial, events, opts.Heartbeat)
		}))
		return nil
	})
}

// streamEvents writes server-sent events until the subscription closes or
// the client goes away.
func streamEvents(w *bufio.Writer, initial dashboard.ViewState, events <-chan selection.Event, heartbeat time.Duration) {
	if err := writeEvent(w, "state", initial); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, e.Type, e.Snapshot); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w *bufio.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}

// waitIdle blocks until the view settles or timeout passes; the state is
// returned either way.
func waitIdle(c *fiber.Ctx, view *dashboard.View, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	defer cancel()
	_ = view.WaitIdle(ctx)
}

// viewError maps domain errors onto HTTP statuses.
func viewError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, selection.ErrClosed):
		return fiber.NewError(fiber.StatusNotFound, "view not found")
	case errors.Is(err, geo.ErrUnknownLocation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, geo.ErrInvalidCoordinate), errors.Is(err, dashboard.ErrInvalidSource):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, selection.ErrGeolocationDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, selection.ErrGeolocationUnavailable), errors.Is(err, mapsurface.ErrWidgetUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
