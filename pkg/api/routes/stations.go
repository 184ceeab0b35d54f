package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"github.com/liip/sheriff"
	"github.com/railconnect/railconnect/pkg/timetable"
)

type stationView struct {
	Code   string `json:"code" groups:"basic,detailed"`
	Name   string `json:"name" groups:"basic,detailed"`
	City   string `json:"city" groups:"detailed"`
	State  string `json:"state" groups:"detailed"`
	Trains int    `json:"trains" groups:"detailed"`
}

func StationsRouter(router fiber.Router, store *timetable.Store) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listStations(c, store)
	})
}

func listStations(c *fiber.Ctx, store *timetable.Store) error {
	skip, limit, err := getPagingQuery(c)
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	snapshot := store.Snapshot()
	if snapshot == nil {
		return sendError(c, fiber.StatusServiceUnavailable, "timetable not loaded")
	}

	groups := []string{"basic"}
	if c.QueryBool("detail", false) {
		groups = append(groups, "detailed")
	}

	stations := []stationView{}
	for _, station := range snapshot.Stations(skip, limit) {
		var view stationView
		if err := copier.Copy(&view, station); err != nil {
			return sendError(c, fiber.StatusInternalServerError, "internal server error")
		}
		view.Trains = snapshot.CallingRuns(station.Code)
		stations = append(stations, view)
	}

	stationsReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, stations)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Sheriff could not reduce Stations")
	}

	return c.JSON(stationsReduced)
}
