package routes

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

func getPagingQuery(c *fiber.Ctx) (int, int, error) {
	skip, err := strconv.Atoi(c.Query("skip", "0"))
	if err != nil || skip < 0 {
		return 0, 0, errors.New("Parameter skip should be a positive integer")
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 0 {
		return 0, 0, errors.New("Parameter limit should be a positive integer")
	}

	return skip, min(limit, maxPageLimit), nil
}

func sendError(c *fiber.Ctx, status int, message string) error {
	c.SendStatus(status)
	return c.JSON(fiber.Map{
		"error": message,
	})
}
