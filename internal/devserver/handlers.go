package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/devserver/users"
	"github.com/dmitrijs2005/eventsplatform/internal/validation"
	"github.com/labstack/echo/v4"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=SEEKER FACILITATOR"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Role    string `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type handler struct {
	users     *users.Service
	catalog   *Catalog
	validator *validation.Validator
	now       func() time.Time
}

// bind decodes and validates the body into req. On failure it has already
// written the 400 response and returns false.
func (h *handler) bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, nonField(c, "Invalid payload.")
	}
	if err := c.Validate(req); err != nil {
		fields := h.validator.Fields(req)
		body := make(map[string][]string, len(fields))
		for k, v := range fields {
			body[k] = []string{v}
		}
		return false, c.JSON(http.StatusBadRequest, body)
	}
	return true, nil
}

func (h *handler) signup(c echo.Context) error {
	var req signupRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if _, err := h.users.Signup(c.Request().Context(), req.Email, req.Password, req.Role); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, map[string][]string{"email": {err.Error()}})
		}
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "User created. Please check email for OTP."})
}

func (h *handler) verifyEmail(c echo.Context) error {
	var req verifyRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.users.VerifyEmail(c.Request().Context(), req.Email, req.OTP); err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Email verified successfully. You can now login."})
}

func (h *handler) resendOTP(c echo.Context) error {
	var req resendRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.users.ResendOTP(c.Request().Context(), req.Email); err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "OTP resent successfully. Please check your email."})
}

func (h *handler) login(c echo.Context) error {
	var req loginRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	pair, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{Access: pair.AccessToken, Refresh: pair.RefreshToken, Role: pair.Role})
}

func (h *handler) listEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Events())
}

func (h *handler) myEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.EventsBy(userID(c)))
}

func (h *handler) upcomingEnrollments(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Upcoming(userID(c), h.now()))
}

func (h *handler) enroll(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusNotFound, "Not found.")
	}
	en, ok := h.catalog.Enroll(userID(c), id)
	if !ok {
		return detail(c, http.StatusNotFound, "Not found.")
	}
	return c.JSON(http.StatusCreated, en)
}

// serviceError renders the known users errors as non_field_errors and hands
// the rest to the echo error handler.
func (h *handler) serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, users.ErrInvalidCredentials),
		errors.Is(err, users.ErrNotVerified),
		errors.Is(err, users.ErrAlreadyVerified),
		errors.Is(err, users.ErrInvalidEmailOrOTP),
		errors.Is(err, users.ErrInvalidOTP),
		errors.Is(err, users.ErrOTPExpired),
		errors.Is(err, users.ErrNoSuchUser):
		return nonField(c, err.Error())
	}
	return err
}

func nonField(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string][]string{"non_field_errors": {msg}})
}
