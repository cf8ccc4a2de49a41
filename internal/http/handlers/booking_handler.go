// README: Booking handlers: quote, confirm, get, cancel, acknowledge and the
// websocket progress stream.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bettercommute/internal/http/middleware"
	"bettercommute/internal/modules/booking"
	"bettercommute/internal/modules/catalog"
	"bettercommute/internal/types"
)

type BookingService interface {
	Quote(ctx context.Context, cmd booking.QuoteCommand, cars []catalog.CarType) (booking.QuoteResult, error)
	Confirm(ctx context.Context, cmd booking.ConfirmCommand) (*booking.Booking, error)
	Get(ctx context.Context, id, passengerID types.ID) (*booking.Booking, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) error
	Acknowledge(ctx context.Context, cmd booking.AcknowledgeCommand) error
	Subscribe(ctx context.Context, id, passengerID types.ID) (<-chan booking.Update, func(), error)
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type BookingHandler struct {
	bookings BookingService
	cars     CarCatalog
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewBookingHandler(svc BookingService, cars CarCatalog, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandler{
		bookings: svc,
		cars:     cars,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type quoteReq struct {
	Pickup  *pointReq `json:"pickup"`
	Dropoff pointReq  `json:"dropoff"`
}

type confirmReq struct {
	Pickup  *pointReq `json:"pickup"`
	Dropoff pointReq  `json:"dropoff"`
	CarType string    `json:"car_type"`
}

type bookingResp struct {
	*booking.Booking
	RemainingMinutes int `json:"remaining_minutes"`
}

func (h *BookingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup, dropoff, ok := parseLeg(req.Pickup, req.Dropoff)
	if !ok {
		writeError(c, http.StatusBadRequest, "dropoff lat and lng required")
		return
	}
	ctx := c.Request.Context()
	res, err := h.bookings.Quote(ctx, booking.QuoteCommand{
		PassengerID: types.ID(middleware.CallerUID(c)),
		Pickup:      pickup,
		Dropoff:     dropoff,
	}, h.cars.All(ctx))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup, dropoff, ok := parseLeg(req.Pickup, req.Dropoff)
	if !ok || req.CarType == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	b, err := h.bookings.Confirm(c.Request.Context(), booking.ConfirmCommand{
		PassengerID: types.ID(middleware.CallerUID(c)),
		Pickup:      pickup,
		Dropoff:     dropoff,
		CarType:     req.CarType,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, bookingResp{Booking: b, RemainingMinutes: b.RemainingMinutes()})
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id, types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResp{Booking: b, RemainingMinutes: b.RemainingMinutes()})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID:   id,
		PassengerID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": booking.StatusCancelled})
}

func (h *BookingHandler) Acknowledge(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	err := h.bookings.Acknowledge(c.Request.Context(), booking.AcknowledgeCommand{
		BookingID:   id,
		PassengerID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": booking.StatusCompleted})
}

// Stream upgrades to a websocket and writes one JSON update per status change
// or tick until the run ends. The last frame carries the final status.
func (h *BookingHandler) Stream(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	passengerID := types.ID(middleware.CallerUID(c))
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, unsubscribe, err := h.bookings.Subscribe(ctx, id, passengerID)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("booking_id", string(id)), zap.Error(err))
		return
	}
	defer conn.Close()

	go readUntilClosed(conn, cancel)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	var last booking.Status
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				h.writeFinal(ctx, conn, id, passengerID, last)
				return
			}
			last = u.Status
			if err := writeFrame(conn, u); err != nil {
				return
			}
		}
	}
}

// writeFinal sends the settled status when it changed after the stream
// closed, e.g. a cancel that stopped the run.
func (h *BookingHandler) writeFinal(ctx context.Context, conn *websocket.Conn, id, passengerID types.ID, last booking.Status) {
	b, err := h.bookings.Get(ctx, id, passengerID)
	if err == nil && b.Status != last {
		_ = writeFrame(conn, booking.Update{BookingID: b.ID, Status: b.Status, Error: b.Error, DriverName: b.DriverName, DriverPhone: b.DriverPhone})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(wsWriteWait))
}

func writeFrame(conn *websocket.Conn, u booking.Update) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(u)
}

// readUntilClosed drains client frames so pongs and close are processed.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func bookingID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return "", false
	}
	return types.ID(id), true
}

// parseLeg converts request points; a nil pickup means "use my last location".
func parseLeg(pickup *pointReq, dropoff pointReq) (*types.Point, types.Point, bool) {
	if dropoff.Lat == nil || dropoff.Lng == nil {
		return nil, types.Point{}, false
	}
	d := types.Point{Lat: *dropoff.Lat, Lng: *dropoff.Lng}
	if pickup == nil {
		return nil, d, true
	}
	if pickup.Lat == nil || pickup.Lng == nil {
		return nil, types.Point{}, false
	}
	return &types.Point{Lat: *pickup.Lat, Lng: *pickup.Lng}, d, true
}
