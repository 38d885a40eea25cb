package http

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"natgascli/internal/chart"
	apperrors "natgascli/internal/errors"
	"natgascli/internal/infrastructure"
	"natgascli/internal/middleware"
)

const shutdownTimeout = 5 * time.Second

var pageTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: sans-serif; margin: 24px; text-align: center; }
        img { max-width: 100%; border: 1px solid #ddd; }
        button { margin-top: 16px; padding: 8px 24px; font-size: 14px; }
    </style>
</head>
<body>
    <img src="/chart.png" alt="{{.Title}}">
    <p>{{.Points}} monthly points, {{.First}} to {{.Last}}</p>
    <button onclick="fetch('/dismiss', {method: 'POST'}).then(() => window.close())">Close</button>
</body>
</html>
`))

// SeriesResponse is the body of GET /api/series
type SeriesResponse struct {
	Title  string        `json:"title"`
	Points []chart.Point `json:"points"`
}

// Viewer serves one rendered chart until dismissed
type Viewer struct {
	addr   string
	title  string
	image  []byte
	points []chart.Point
	logger *slog.Logger

	dismissed chan struct{}
	dismissMu sync.Once
	ready     chan struct{}
	url       string
}

// NewViewer creates a viewer for a rendered PNG and its points
func NewViewer(addr, title string, image []byte, points []chart.Point, logger *slog.Logger) *Viewer {
	return &Viewer{
		addr:      addr,
		title:     title,
		image:     image,
		points:    points,
		logger:    infrastructure.WithComponent(logger, "viewer"),
		dismissed: make(chan struct{}),
		ready:     make(chan struct{}),
	}
}

// Routes returns the viewer's router
func (v *Viewer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(v.logger))
	r.Use(middleware.Recoverer(v.logger))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, apperrors.NewErrorResponse(apperrors.ErrNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, apperrors.NewErrorResponse(apperrors.ErrMethodNotAllowed))
	})

	r.Get("/", v.handlePage)
	r.Get("/chart.png", v.handleImage)
	r.Post("/dismiss", v.handleDismiss)
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/series", v.handleSeries)
	})

	return r
}

// Ready is closed once Serve is accepting connections
func (v *Viewer) Ready() <-chan struct{} {
	return v.ready
}

// URL is the address the viewer listens on; valid after Ready
func (v *Viewer) URL() string {
	return v.url
}

// Dismissed is closed when the user closes the chart
func (v *Viewer) Dismissed() <-chan struct{} {
	return v.dismissed
}

// Serve listens on the configured address and blocks until the chart is
// dismissed (nil) or ctx is cancelled (ctx.Err())
func (v *Viewer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", v.addr)
	if err != nil {
		return apperrors.NewNetworkError("failed to start chart viewer", err).
			WithContext("addr", v.addr)
	}

	srv := &http.Server{
		Handler:           v.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	v.url = "http://" + ln.Addr().String() + "/"
	close(v.ready)
	v.logger.InfoContext(ctx, "Chart viewer listening", slog.String("url", v.url))

	var result error
	select {
	case <-v.dismissed:
		v.logger.InfoContext(ctx, "Chart dismissed")
	case <-ctx.Done():
		result = ctx.Err()
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return apperrors.NewNetworkError("chart viewer stopped", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		v.logger.WarnContext(ctx, "Chart viewer shutdown incomplete", slog.String("error", err.Error()))
	}

	return result
}

func (v *Viewer) handlePage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title       string
		Points      int
		First, Last string
	}{Title: v.title, Points: len(v.points)}
	if len(v.points) > 0 {
		data.First = v.points[0].Label
		data.Last = v.points[len(v.points)-1].Label
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		v.logger.ErrorContext(r.Context(), "Failed to render page", slog.String("error", err.Error()))
	}
}

func (v *Viewer) handleImage(w http.ResponseWriter, r *http.Request) {
	if len(v.image) == 0 {
		render.Render(w, r, apperrors.NewErrorResponse(apperrors.ErrChartUnavailable))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(v.image)
}

func (v *Viewer) handleSeries(w http.ResponseWriter, r *http.Request) {
	if len(v.points) == 0 {
		render.Render(w, r, apperrors.NewErrorResponse(apperrors.FromAppError(apperrors.NewNotFoundError("price series"))))
		return
	}
	render.JSON(w, r, SeriesResponse{Title: v.title, Points: v.points})
}

func (v *Viewer) handleDismiss(w http.ResponseWriter, r *http.Request) {
	v.dismissMu.Do(func() { close(v.dismissed) })
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]bool{"dismissed": true})
}
