package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"resourcehub/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; everything flows through the
// injected service.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ResourceService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health: readiness checks DB connectivity, healthz is pure liveness
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Resource lifecycle. The stats route must precede /resources/:id so
	// "stats" is not captured as an id.
	app.Get("/resources/stats", ResourceStats(svc))
	app.Get("/resources", ListResources(svc))
	app.Post("/resources", CreateResource(svc))
	app.Get("/resources/:id", GetResource(svc))
	app.Patch("/resources/:id", UpdateResource(svc))
	app.Delete("/resources/:id", DeleteResource(svc))
	app.Post("/resources/:id/download", RecordDownload(svc))
}
