package routes

import "github.com/gofiber/fiber/v2"

// Version is replaced at build time with -ldflags "-X"
var Version = "v0.1"

func APIVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": Version,
	})
}

func Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to Rail Connect API",
	})
}
