package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saviottt/solarcalc/internal/climate"
	"github.com/saviottt/solarcalc/internal/estimator"
	"github.com/saviottt/solarcalc/internal/logging"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, engine *estimator.Engine) {
	v1 := app.Group("/api/v1")

	v1.Post("/estimate", func(c *fiber.Ctx) error {
		var req estimator.Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}

		res, err := engine.Estimate(requestContext(c), req)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	v1.Get("/irradiance", func(c *fiber.Ctx) error {
		req, err := parseIrradianceQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := engine.Irradiance(requestContext(c), req)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...} with a
// status derived from the error chain.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		logging.Ctx(requestContext(c)).Error("request failed",
			slog.String("path", c.Path()),
			slog.Int("status", code),
			slog.Any("error", err))
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, estimator.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, climate.ErrFetchFailed), errors.Is(err, climate.ErrDataMissing):
		return fiber.StatusBadGateway
	default:
		// Prediction failures included.
		return fiber.StatusInternalServerError
	}
}

// requestContext attaches a logger tagged with the request ID.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		ctx = logging.With(ctx, logging.Ctx(ctx).With(slog.String("request_id", id)))
	}
	return ctx
}

func parseIrradianceQuery(c *fiber.Ctx) (estimator.IrradianceRequest, error) {
	var req estimator.IrradianceRequest
	var err error

	if req.Latitude, err = requiredFloat(c, "latitude"); err != nil {
		return req, err
	}
	if req.Longitude, err = requiredFloat(c, "longitude"); err != nil {
		return req, err
	}

	month := c.Query("month")
	if month == "" {
		return req, errors.New("month query parameter is required")
	}
	if req.Month, err = strconv.Atoi(month); err != nil {
		return req, fmt.Errorf("invalid month %q", month)
	}

	if req.Tilt, err = optionalFloat(c, "tilt"); err != nil {
		return req, err
	}
	if req.NOCT, err = optionalFloat(c, "noct"); err != nil {
		return req, err
	}
	if req.SystemSizeKW, err = optionalFloat(c, "system_size_kw"); err != nil {
		return req, err
	}
	return req, nil
}

func requiredFloat(c *fiber.Ctx, key string) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, fmt.Errorf("%s query parameter is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return f, nil
}

func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	if c.Query(key) == "" {
		return nil, nil
	}
	f, err := requiredFloat(c, key)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
