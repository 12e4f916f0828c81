package fiberhelpers

import (
	_error "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func DefaultErrorHandler(ctx *fiber.Ctx, err error) error {
	fiberError, convertErr := convertToFiberError(err)
	if convertErr != nil {
		log.Error(convertErr.Error())
		return ctx.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "internal server error",
		})
	}
	log.Error(fiberError.Error())
	return ctx.Status(fiberError.Code).JSON(errorResponse{
		Status:  fiberError.Code,
		Message: fiberError.Message,
	})
}

func convertToFiberError(err error) (fiber.Error, error) {
	var fiberError *fiber.Error
	converted := _error.As(err, &fiberError)
	if converted {
		return *fiberError, nil
	}
	return fiber.Error{}, err
}
