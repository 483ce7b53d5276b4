package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/present/rest/middleware"
	"github.com/imobcrm/erpsync/internal/present/rest/presenter"
)

type SyncTrigger interface {
	RunLicense(ctx context.Context, licenseID string) (domain.SyncSummary, error)
}

type LicenseReader interface {
	Runs(ctx context.Context, licenseID string, limit int) ([]domain.SyncSummary, error)
	Contracts(ctx context.Context, licenseID string, limit, offset int) ([]domain.ContractOverview, error)
	Contract(ctx context.Context, licenseID string, externalID int64) (domain.Contract, error)
}

type EventStream interface {
	Subscribe(ctx context.Context) (<-chan domain.SyncEvent, error)
}

type Handler struct {
	sync    SyncTrigger
	license LicenseReader
	events  EventStream
	auth    *middleware.TokenAuth
	health  func(ctx context.Context) error
}

func NewHandler(
	sync SyncTrigger,
	license LicenseReader,
	events EventStream,
	auth *middleware.TokenAuth,
	health func(ctx context.Context) error,
) *Handler {
	return &Handler{
		sync:    sync,
		license: license,
		events:  events,
		auth:    auth,
		health:  health,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)

	e.POST("/licenses/:license/sync", h.handleSync, h.auth.Require)
	e.GET("/licenses/:license/runs", h.handleRuns, h.auth.Require)
	e.GET("/licenses/:license/contracts", h.handleContracts, h.auth.Require)
	e.GET("/licenses/:license/contracts/:id", h.handleContract, h.auth.Require)
	e.GET("/realtime", h.handleRealtime, h.auth.Require)
}

func (h *Handler) handleHealth(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleSync(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.sync.RunLicense(ctx, c.Param("license"))
	if err != nil {
		if summary.RunID == "" {
			return presenter.Error(c, err, nil)
		}
		return presenter.Error(c, err, summary)
	}
	return presenter.OK(c, summary)
}

func (h *Handler) handleRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := intQuery(c, "limit")
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	runs, err := h.license.Runs(ctx, c.Param("license"), limit)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, runs)
}

func (h *Handler) handleContracts(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := intQuery(c, "limit")
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	contracts, err := h.license.Contracts(ctx, c.Param("license"), limit, offset)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, contracts)
}

func (h *Handler) handleContract(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return presenter.BadRequestMessage(c, "invalid contract id")
	}
	contract, err := h.license.Contract(ctx, c.Param("license"), id)
	if err != nil {
		return presenter.Error(c, err, nil)
	}
	return presenter.OK(c, contract)
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string   `json:"type"`
	Licenses []string `json:"licenses"`
}

// handleRealtime forwards sync events to the socket. A client narrows the
// feed with {"type":"listen","licenses":[...]}; until then it gets all of them.
func (h *Handler) handleRealtime(c echo.Context) error {
	if h.events == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime feed not configured"})
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

	events, err := h.events.Subscribe(ctx)
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to subscribe to sync events",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return nil
	}

	filter := make(chan []string)
	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
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
				case filter <- req.Licenses:
				case <-ctx.Done():
					return
				}
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

	var licenses []string
	for {
		select {
		case <-quit:
			return nil
		case licenses = <-filter:
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if len(licenses) > 0 && !slices.Contains(licenses, event.Summary.LicenseID) {
				continue
			}
			if err := ws.WriteJSON(event); err != nil {
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
