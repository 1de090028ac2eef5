package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/jcalder/tablebook/internal/domain"
	"github.com/jcalder/tablebook/internal/service/reservation"
)

type ReservationHandler struct {
	service reservation.ReservationUseCase
}

// dataEnvelope is the request wrapper every mutating endpoint expects. The
// payload stays a raw map so the validation pipeline can see exactly what
// the client sent.
type dataEnvelope struct {
	Data map[string]any `json:"data"`
}

type statusEnvelope struct {
	Data *struct {
		Status string `json:"status"`
	} `json:"data"`
}

type reservationResponse struct {
	ReservationID int64     `json:"reservation_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	MobileNumber  string    `json:"mobile_number"`
	Date          string    `json:"reservation_date"`
	Time          string    `json:"reservation_time"`
	People        int       `json:"people"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewReservationHandler(service reservation.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.read)
	router.PUT("/:id", h.update)
	router.PUT("/:id/status", h.updateStatus)
}

func (h *ReservationHandler) list(c *gin.Context) {
	reservations, err := h.service.List(c.Request.Context(), c.Query("date"), c.Query("mobile_number"))
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]reservationResponse, 0, len(reservations))
	for i := range reservations {
		data = append(data, toResponse(&reservations[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *ReservationHandler) read(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResponse(res)})
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req dataEnvelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Create(c.Request.Context(), req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toResponse(res)})
}

func (h *ReservationHandler) update(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var req dataEnvelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Update(c.Request.Context(), id, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResponse(res)})
}

func (h *ReservationHandler) updateStatus(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var req statusEnvelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must have data property."})
		return
	}

	res, err := h.service.UpdateStatus(c.Request.Context(), id, req.Data.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResponse(res)})
}

func reservationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reservation " + c.Param("id") + " cannot be found."})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	var domErr *domain.Error
	if errors.As(err, &domErr) {
		status := http.StatusBadRequest
		if domErr.Kind == domain.KindNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": domErr.Message})
		return
	}

	log.WithError(err).Error("reservation request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func toResponse(res *domain.Reservation) reservationResponse {
	return reservationResponse{
		ReservationID: res.ID,
		FirstName:     res.FirstName,
		LastName:      res.LastName,
		MobileNumber:  res.MobileNumber,
		Date:          res.Date,
		Time:          res.Time,
		People:        res.People,
		Status:        string(res.Status),
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
	}
}
