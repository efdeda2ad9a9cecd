package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/present/rest/presenter"
	"github.com/totegamma/messboard/internal/usecase"
)

const DefaultMaxUploadBytes int64 = 5 << 20

// RealtimeSource streams events of the hostels last sent on input.
type RealtimeSource interface {
	Realtime(ctx context.Context, input <-chan []string, output chan<- messboard.Event)
}

type Handler struct {
	menu           *usecase.MenuUsecase
	notification   *usecase.NotificationUsecase
	issue          *usecase.IssueUsecase
	signal         RealtimeSource
	maxUploadBytes int64
}

func NewHandler(
	menu *usecase.MenuUsecase,
	notification *usecase.NotificationUsecase,
	issue *usecase.IssueUsecase,
	signal RealtimeSource,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		menu:           menu,
		notification:   notification,
		issue:          issue,
		signal:         signal,
		maxUploadBytes: maxUploadBytes,
	}
}

type router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterRoutes mounts every route at the root and again under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	h.register(e)
	h.register(e.Group("/api"))
}

func (h *Handler) register(r router) {
	r.GET("/healthz", h.handleHealth)
	r.GET("/menus/today", h.handleToday)
	r.GET("/menus", h.handleDay)
	r.POST("/menus", h.handleAddItem)
	r.DELETE("/menus/item/:itemId", h.handleDeleteItem)
	r.GET("/menus/realtime", h.handleRealtime)
	r.GET("/notifications", h.handleNotifications)
	r.POST("/notifications", h.handlePostNotification)
	r.POST("/report-issue", h.handleReportIssue)
}

func (h *Handler) handleHealth(c echo.Context) error {
	err := h.menu.Ping(c.Request().Context())
	if err != nil {
		slog.WarnContext(
			c.Request().Context(), "health check failed",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return c.JSON(http.StatusServiceUnavailable, messboard.Response[any]{Success: false, Error: "storage unavailable"})
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleToday(c echo.Context) error {
	ctx := c.Request().Context()

	docs, err := h.menu.ReadToday(ctx, c.QueryParam("hostel"))
	if err != nil {
		return presenter.Error(c, err)
	}

	body, err := json.Marshal(messboard.Response[any]{Success: true, Data: docs})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	etag := fmt.Sprintf(`W/"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	c.Response().Header().Set("Cache-Control", "no-cache")
	if matchesETag(c.Request().Header.Get("If-None-Match"), etag) {
		return c.NoContent(http.StatusNotModified)
	}

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, body)
}

func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag || "W/"+candidate == etag {
			return true
		}
	}
	return false
}

func (h *Handler) handleDay(c echo.Context) error {
	ctx := c.Request().Context()

	date := c.QueryParam("date")
	if date == "" {
		return presenter.BadRequestMessage(c, "date parameter is required")
	}

	docs, err := h.menu.ReadDay(ctx, date, c.QueryParam("hostel"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, docs)
}

func (h *Handler) handleAddItem(c echo.Context) error {
	ctx := c.Request().Context()

	input := usecase.AddItemInput{
		Hostel:    c.FormValue("hostel"),
		MealType:  c.FormValue("mealType"),
		Text:      c.FormValue("singleItem"),
		CreatedBy: c.FormValue("createdBy"),
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	input.Photo = photo

	doc, err := h.menu.AddItem(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, doc, "menu item added")
}

// photoFields are the multipart fields a photo may arrive in, in lookup order.
// Older clients send "image".
var photoFields = []string{"photo", "image"}

// readPhoto returns nil when the request carries no photo part.
func (h *Handler) readPhoto(c echo.Context) (*usecase.PhotoInput, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}

	var fh *multipart.FileHeader
	for _, field := range photoFields {
		found, err := c.FormFile(field)
		if err == nil {
			fh = found
			break
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, domain.UploadError{Reason: "unreadable photo"}
		}
	}
	if fh == nil {
		return nil, nil
	}
	if fh.Size > h.maxUploadBytes {
		return nil, domain.UploadError{Reason: fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes)}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, domain.UploadError{Reason: "unreadable photo"}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, domain.UploadError{Reason: "unreadable photo"}
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, domain.UploadError{Reason: fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes)}
	}

	return &usecase.PhotoInput{
		Data:     data,
		MimeType: fh.Header.Get(echo.HeaderContentType),
	}, nil
}

func (h *Handler) handleDeleteItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req messboard.DeleteItemRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	err := h.menu.DeleteItem(ctx, c.Param("itemId"), req.CreatedBy)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Message(c, "menu item deleted")
}

func (h *Handler) handleNotifications(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	limitStr := c.QueryParam("limit")
	if limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}

	results, err := h.notification.List(ctx, limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, results)
}

func (h *Handler) handlePostNotification(c echo.Context) error {
	ctx := c.Request().Context()

	var req messboard.PostNotificationRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	n, err := h.notification.Post(ctx, req.Message, req.CreatedBy)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, n, "notification posted")
}

func (h *Handler) handleReportIssue(c echo.Context) error {
	ctx := c.Request().Context()

	var req messboard.ReportIssueRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	issue, err := h.issue.Report(ctx, req)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, issue, "issue reported")
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, messboard.Response[any]{Success: false, Error: "realtime is disabled"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan messboard.Event)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{}, 1)

	go func() {
		defer func() { quit <- struct{}{} }()
		for {
			var req messboard.ListenRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Hostels:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Hostels),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
