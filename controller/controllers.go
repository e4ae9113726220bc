package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/service"
	"github.com/dilshat/gift-courier/service/dto"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const malfunction = "System malfunction. Please, try later"

// respond maps service errors to status codes.
func respond(c echo.Context, err error, notFound string) error {
	var invalid *service.InvalidPayloadErr
	var conflict *service.ConflictErr
	switch {
	case errors.As(err, &invalid):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		return c.String(http.StatusConflict, err.Error())
	case errors.Is(err, dao.ErrNotFound):
		return c.String(http.StatusNotFound, notFound)
	default:
		zap.L().Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.String(http.StatusInternalServerError, malfunction)
	}
}

// GetDelivery godoc
// @Summary Get delivery
// @Description Returns the delivery of an order
// @Produce json
// @Param code path string true "Order code"
// @Success 200 {object} dto.Delivery
// @Failure 404 "error description"
// @Router /deliveries/{code} [get]
func GetDeliveryFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param("code")

		delivery, err := srv.Get(code)
		if err != nil {
			return respond(c, err, "Delivery not found "+code)
		}

		return c.JSON(http.StatusOK, delivery)
	}
}

// OpenOrder godoc
// @Summary Open order
// @Description Verifies an order code with the marketplace and returns its delivery, creating it on first use
// @Produce json
// @Param code path string true "Order code"
// @Success 200 {object} dto.Order
// @Failure 400 "error description"
// @Router /deliveries/{code}/open [post]
func GetOpenOrderFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param("code")

		order, err := srv.Open(c.Request().Context(), code)
		if err != nil {
			return respond(c, err, "Order not found "+code)
		}

		return c.JSON(http.StatusOK, order)
	}
}

// GetRemaining godoc
// @Summary Time until delivery
// @Produce json
// @Param code path string true "Order code"
// @Success 200 {object} dto.Remaining
// @Failure 404 "error description"
// @Router /deliveries/{code}/remaining [get]
func GetRemainingFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param("code")

		remaining, err := srv.TimeUntilDelivery(code)
		if err != nil {
			return respond(c, err, "Delivery not found "+code)
		}

		return c.JSON(http.StatusOK, remaining)
	}
}

// DeliveryCommand godoc
// @Summary Run a delivery command
// @Description start makes the delivery due now, pause freezes the wait, unpause resumes it, clear removes an error
// @Produce json
// @Param code path string true "Order code"
// @Param command path string true "start, pause, unpause or clear"
// @Success 200 {object} dto.Delivery
// @Failure 404 "error description"
// @Failure 409 "error description"
// @Router /deliveries/{code}/{command} [post]
func GetCommandFunc(command func(code string) (dto.Delivery, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param("code")

		delivery, err := command(code)
		if err != nil {
			return respond(c, err, "Delivery not found "+code)
		}

		return c.JSON(http.StatusOK, delivery)
	}
}

// SetRecipient godoc
// @Summary Set recipient
// @Description Sets the recipient profile of a delivery that has not started yet
// @Accept json
// @Produce json
// @Param code path string true "Order code"
// @Param link body dto.Link true "Profile link"
// @Success 200 {object} dto.Delivery
// @Failure 400 "error description"
// @Failure 409 "error description"
// @Router /deliveries/{code}/recipient [put]
func GetSetRecipientFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param("code")
		link := new(dto.Link)
		if err := c.Bind(link); err != nil {
			return err
		}

		delivery, err := srv.SetRecipient(c.Request().Context(), code, link.Link)
		if err != nil {
			return respond(c, err, "Delivery not found "+code)
		}

		return c.JSON(http.StatusOK, delivery)
	}
}

// CheckStatus godoc
// @Summary Poll for a status change
// @Description Returns the new status if it differs from the known one, -1 otherwise. With wait the call blocks up to wait seconds for a change.
// @Produce json
// @Param code path string true "Order code"
// @Param known query int true "Status known to the client"
// @Param wait query int false "Seconds to wait for a change"
// @Success 200 {object} dto.StatusChange
// @Failure 400 "error description"
// @Router /deliveries/{code}/status [get]
func GetCheckStatusFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		code := c.Param("code")

		known, err := strconv.Atoi(c.QueryParam("known"))
		if err != nil {
			return c.String(http.StatusBadRequest, "Invalid known status")
		}
		wait := 0
		if w := c.QueryParam("wait"); w != "" {
			if wait, err = strconv.Atoi(w); err != nil || wait < 0 {
				return c.String(http.StatusBadRequest, "Invalid wait")
			}
		}

		change, err := srv.CheckForNewStatus(c.Request().Context(), code, known, time.Duration(wait)*time.Second)
		if err != nil {
			return respond(c, err, "Delivery not found "+code)
		}

		return c.JSON(http.StatusOK, change)
	}
}

// CheckProfile godoc
// @Summary Check profile
// @Description Resolves a profile link and checks that the profile is public
// @Accept json
// @Produce json
// @Param link body dto.Link true "Profile link"
// @Success 200 {object} dto.Profile
// @Failure 400 "error description"
// @Router /profiles/check [post]
func GetCheckProfileFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		link := new(dto.Link)
		if err := c.Bind(link); err != nil {
			return err
		}

		p, err := srv.CheckProfile(c.Request().Context(), link.Link)
		if err != nil {
			return respond(c, err, "Profile not found")
		}

		return c.JSON(http.StatusOK, p)
	}
}

// CourierProfile godoc
// @Summary Courier profile
// @Description Profile of the account that sends friend invites and gifts
// @Produce json
// @Success 200 {object} dto.Profile
// @Router /courier [get]
func GetCourierProfileFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := srv.CourierProfile(c.Request().Context())
		if err != nil {
			return respond(c, err, "Profile not found")
		}

		return c.JSON(http.StatusOK, p)
	}
}

// Workers godoc
// @Summary Running workers
// @Produce json
// @Success 200 {array} dto.Worker
// @Router /workers [get]
func GetWorkersFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, srv.Workers())
	}
}

// Bind attaches all routes of the service.
func Bind(e *echo.Echo, srv service.Service) {
	e.GET("/deliveries/:code", GetDeliveryFunc(srv))
	e.POST("/deliveries/:code/open", GetOpenOrderFunc(srv))
	e.GET("/deliveries/:code/remaining", GetRemainingFunc(srv))
	e.POST("/deliveries/:code/start", GetCommandFunc(srv.ForceStart))
	e.POST("/deliveries/:code/pause", GetCommandFunc(srv.Pause))
	e.POST("/deliveries/:code/unpause", GetCommandFunc(srv.Unpause))
	e.POST("/deliveries/:code/clear", GetCommandFunc(srv.ClearError))
	e.PUT("/deliveries/:code/recipient", GetSetRecipientFunc(srv))
	e.GET("/deliveries/:code/status", GetCheckStatusFunc(srv))

	e.POST("/profiles/check", GetCheckProfileFunc(srv))
	e.GET("/courier", GetCourierProfileFunc(srv))
	e.GET("/workers", GetWorkersFunc(srv))
}
