// Package chartview exposes the chart engine over HTTP: rendered PNG
// frames, gesture ingestion, drawing management and a go-echarts preview
// page for eyeballing the data without a native client.
package chartview

import (
	"github.com/gofiber/fiber/v2"

	"marmot/chart"
	"marmot/input"
	"marmot/model"
	fiberhelpers "marmot/utils/fiberhelper"
	"marmot/utils/log"
	"marmot/utils/pointer"
)

type Server struct {
	app   *fiber.App
	chart *chart.Chart
}

func NewServer(c *chart.Chart) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          fiberhelpers.DefaultErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(fiberhelpers.NewRecover())

	s := &Server{app: app, chart: c}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.index)
	s.app.Get("/chart", s.previewPage)
	s.app.Get("/frame", s.frame)

	api := s.app.Group("/api")
	api.Post("/gesture", s.gesture)
	api.Get("/viewport", s.viewportState)
	api.Post("/mode", s.setMode)
	api.Post("/tool", s.setTool)
	api.Post("/resize", s.resize)
	api.Post("/indicators/:id/toggle", s.toggleIndicator)
	api.Get("/drawings", s.listDrawings)
	api.Delete("/drawings/:id", s.deleteDrawing)
	api.Delete("/drawings", s.clearDrawings)
}

// Start blocks until shutdown.
func (s *Server) Start(addr string) {
	log.Infof("[ChartView] listening on %s", addr)
	fiberhelpers.ListenWithGraceFullyShutdown(s.app, addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) index(ctx *fiber.Ctx) error {
	ctx.Set("Content-Type", "text/html")
	return ctx.SendString(`<html><body>
        <h2>Marmot Chart</h2>
        <p><a href="/chart">Go To Candle Chart</a></p>
        <p><a href="/frame">Latest Rendered Frame</a></p>
        </body></html>`)
}

func (s *Server) frame(ctx *fiber.Ctx) error {
	png, err := s.chart.Frame()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	ctx.Set("Content-Type", "image/png")
	return ctx.Send(png)
}

// TouchPayload mirrors one active touch point on the wire.
type TouchPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GestureRequest is a normalized pointer/touch/wheel event. Coordinates are
// canvas pixels; absent fields default to zero.
type GestureRequest struct {
	Type    string         `json:"type"`
	X       *float64       `json:"x"`
	Y       *float64       `json:"y"`
	DeltaY  *float64       `json:"deltaY"`
	Touches []TouchPayload `json:"touches"`
}

func (s *Server) gesture(ctx *fiber.Ctx) error {
	req := fiberhelpers.RequestParse[GestureRequest](ctx)
	x := pointer.NotNull(req.X, 0)
	y := pointer.NotNull(req.Y, 0)

	switch req.Type {
	case "pointerdown":
		s.chart.PointerDown(x, y)
	case "pointermove":
		s.chart.PointerMove(x, y)
	case "pointerup":
		s.chart.PointerUp(x, y)
	case "pointerleave":
		s.chart.PointerLeave()
	case "wheel":
		s.chart.Wheel(x, y, pointer.NotNull(req.DeltaY, 0))
	case "doubleclick":
		s.chart.DoubleClick()
	case "touchstart":
		s.chart.TouchStart(toTouches(req.Touches))
	case "touchmove":
		s.chart.TouchMove(toTouches(req.Touches))
	case "touchend":
		s.chart.TouchEnd(toTouches(req.Touches))
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown gesture type: "+req.Type)
	}
	return ctx.JSON(s.chart.Viewport())
}

func toTouches(payload []TouchPayload) []input.Touch {
	touches := make([]input.Touch, len(payload))
	for i, t := range payload {
		touches[i] = input.Touch{X: t.X, Y: t.Y}
	}
	return touches
}

func (s *Server) viewportState(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"viewport":  s.chart.Viewport(),
		"crosshair": s.chart.Crosshair(),
	})
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) setMode(ctx *fiber.Ctx) error {
	req := fiberhelpers.RequestParse[ModeRequest](ctx)
	switch req.Mode {
	case "normal":
		s.chart.SetMode(input.ModeNormal)
	case "drawing":
		s.chart.SetMode(input.ModeDrawing)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown mode: "+req.Mode)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

type ToolRequest struct {
	Tool string `json:"tool"`
}

func (s *Server) setTool(ctx *fiber.Ctx) error {
	req := fiberhelpers.RequestParse[ToolRequest](ctx)
	tool := model.DrawingType(req.Tool)
	switch tool {
	case model.DrawingTrendline, model.DrawingHorizontal, model.DrawingVertical, model.DrawingFibonacci:
		s.chart.SetTool(tool)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown tool: "+req.Tool)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) resize(ctx *fiber.Ctx) error {
	req := fiberhelpers.RequestParse[ResizeRequest](ctx)
	if req.Width <= 0 || req.Height <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "width and height must be positive")
	}
	s.chart.Resize(req.Width, req.Height)
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *Server) toggleIndicator(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if !s.chart.ToggleIndicator(id) {
		return fiber.NewError(fiber.StatusNotFound, "no indicator with id "+id)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listDrawings(ctx *fiber.Ctx) error {
	return ctx.JSON(s.chart.Drawings())
}

func (s *Server) deleteDrawing(ctx *fiber.Ctx) error {
	s.chart.RemoveDrawing(ctx.Params("id"))
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *Server) clearDrawings(ctx *fiber.Ctx) error {
	s.chart.ClearDrawings()
	return ctx.SendStatus(fiber.StatusNoContent)
}
