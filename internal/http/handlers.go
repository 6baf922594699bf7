package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/dashboard"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/export"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/service"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type profileRequest struct {
	Profile   domain.ProfileName `json:"profile"`
	Threshold *float64           `json:"threshold"`
	Name      string             `json:"name"`
	Location  string             `json:"location"`
}

type cleaningRequest struct {
	CleanedAt *time.Time `json:"cleaned_at"`
}

// Register mounts the operator API. exp may be nil when exports are disabled.
func Register(app *fiber.App, svcs *service.Services, exp *export.Exporter) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(dashboard.Rows(svcs.Scores))
	})

	g := app.Group("/washrooms/:id")

	g.Get("/profile", func(c *fiber.Ctx) error {
		p, err := svcs.Profiles.Lookup(c.UserContext(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "unknown washroom"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(p)
	})

	g.Put("/profile", func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		p := domain.NewDefaultProfile(c.Params("id"))
		if req.Profile != "" {
			p.Profile = req.Profile
		}
		if req.Threshold != nil {
			p.AlertThreshold = *req.Threshold
		}
		if req.Name != "" {
			p.DisplayName = req.Name
		}
		if req.Location != "" {
			p.Location = req.Location
		}
		err := svcs.Profiles.Override(c.UserContext(), p)
		if errors.Is(err, service.ErrInvalidProfile) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(p)
	})

	g.Get("/notifications", func(c *fiber.Ctx) error {
		if svcs.Feed == nil {
			return c.Status(503).JSON(fiber.Map{"error": "no readable notification sink"})
		}
		limit := c.QueryInt("limit", defaultFeedLimit)
		if limit <= 0 || limit > maxFeedLimit {
			limit = maxFeedLimit
		}
		notes, err := svcs.Feed.Recent(c.UserContext(), c.Params("id"), limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(notes)
	})

	g.Get("/cleaning", func(c *fiber.Ctx) error {
		return c.JSON(svcs.Cleaning.State(c.Params("id")))
	})

	g.Post("/cleanings", func(c *fiber.Ctx) error {
		at := time.Now().UTC()
		if len(c.Body()) > 0 {
			var req cleaningRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			if req.CleanedAt != nil {
				at = req.CleanedAt.UTC()
			}
		}
		id := c.Params("id")
		svcs.Cleaning.RecordCleaning(id, at)
		return c.Status(201).JSON(svcs.Cleaning.State(id))
	})

	app.Post("/exports/:date", func(c *fiber.Ctx) error {
		if exp == nil {
			return c.Status(503).JSON(fiber.Map{"error": "exports disabled"})
		}
		loc := exp.Location
		if loc == nil {
			loc = time.Local
		}
		day, err := time.ParseInLocation(time.DateOnly, c.Params("date"), loc)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}
		rep, err := exp.ExportDay(c.UserContext(), day)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"date":     rep.Date,
			"file":     rep.CSVPath,
			"xlsx":     rep.XLSXPath,
			"uploaded": rep.Uploaded,
			"records":  rep.Summary.Records,
			"average":  rep.Summary.AverageScore,
		})
	})
}
