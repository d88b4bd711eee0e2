package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every endpoint replies with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message"`
}

// Respond sends an envelope with the specified status code.
func Respond(c *fiber.Ctx, status int, success bool, data interface{}, message string) error {
	resp := APIResponse{Success: success, Data: data}
	if message != "" {
		resp.Message = &message
	}
	return c.Status(status).JSON(resp)
}

// Success sends a 200 envelope.
func Success(c *fiber.Ctx, data interface{}, message string) error {
	return Respond(c, fiber.StatusOK, true, data, message)
}

// Created sends a 201 envelope.
func Created(c *fiber.Ctx, data interface{}, message string) error {
	return Respond(c, fiber.StatusCreated, true, data, message)
}

// Error sends a failed envelope with no data.
func Error(c *fiber.Ctx, status int, message string) error {
	return Respond(c, status, false, nil, message)
}

// BadRequest sends a failed envelope with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a failed envelope with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// NotFound sends a failed envelope with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// InternalError sends a failed envelope with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
