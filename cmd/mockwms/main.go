// mockwms es un backend WMS falso para desarrollo del terminal: catálogo
// sembrado en memoria, eventos de ventanilla simulados y registro de
// movimientos. No requiere base de datos; corre en el portátil del
// desarrollador junto al terminal.
package main

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-terminal/internal/application/dto"
)

// mockState estado en memoria del backend falso.
type mockState struct {
	mu       sync.Mutex
	articles map[string]dto.ArticleResponse
	events   []dto.EventDTO
	maxEvent int64
	folioSeq int
}

func main() {
	port := 8080
	if v := os.Getenv("MOCKWMS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			port = n
		}
	}

	st := &mockState{articles: seedArticles()}
	st.seedEvents()

	app := fiber.New(fiber.Config{
		AppName:      "mockwms",
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "mockwms"})
	})
	app.Get("/api/articles/:code", st.handleLookup)
	app.Get("/api/ventanilla/events", st.handleEvents)
	app.Post("/api/ventanilla/claim", st.handleClaim)
	app.Post("/api/movements", st.handleSubmit)

	fmt.Printf("mockwms escuchando en :%d\n", port)
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		fmt.Fprintln(os.Stderr, "mockwms:", err)
		os.Exit(1)
	}
}

// handleLookup GET /api/articles/:code — 404 con envelope cuando el código no
// existe, igual que el backend real.
func (st *mockState) handleLookup(c *fiber.Ctx) error {
	code := c.Params("code")
	st.mu.Lock()
	art, ok := st.articles[code]
	st.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code: "ARTICLE_NOT_FOUND", Message: "artículo no encontrado",
		})
	}
	return c.JSON(art)
}

// handleEvents GET /api/ventanilla/events?after=&limit= — eventos con id
// mayor a after en orden ascendente más el máximo id del servidor.
func (st *mockState) handleEvents(c *fiber.Ctx) error {
	after, _ := strconv.ParseInt(c.Query("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	resp := dto.EventsResponse{MaxEventID: st.maxEvent, Events: []dto.EventDTO{}}
	for _, ev := range st.events {
		if ev.EventID <= after {
			continue
		}
		resp.Events = append(resp.Events, ev)
		if len(resp.Events) >= limit {
			break
		}
	}
	return c.JSON(resp)
}

// handleClaim POST /api/ventanilla/claim — retira el evento reclamado.
func (st *mockState) handleClaim(c *fiber.Ctx) error {
	var body struct {
		EventID int64 `json:"event_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, ev := range st.events {
		if ev.EventID == body.EventID {
			st.events = append(st.events[:i], st.events[i+1:]...)
			return c.JSON(fiber.Map{"message": "traslado reclamado"})
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "EVENT_NOT_FOUND", Message: "evento no encontrado"})
}

// handleSubmit POST /api/movements — valida lo mínimo y asigna folio.
func (st *mockState) handleSubmit(c *fiber.Ctx) error {
	var req dto.SubmitMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if req.Type == "" || len(req.Lines) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo o líneas faltantes"})
	}
	st.mu.Lock()
	st.folioSeq++
	folio := fmt.Sprintf("%s-%05d", req.Type, st.folioSeq)
	st.mu.Unlock()
	return c.Status(fiber.StatusCreated).JSON(dto.SubmitMovementResponse{
		MovementID: uuid.New().String(),
		Folio:      folio,
	})
}

func seedArticles() map[string]dto.ArticleResponse {
	seed := []dto.ArticleResponse{
		{Code: "ABC-123", Name: "Tornillo hexagonal 1/4", Unit: "EA", Price: decimal.NewFromFloat(350)},
		{Code: "ABC-124", Name: "Tuerca 1/4", Unit: "EA", Price: decimal.NewFromFloat(120)},
		{Code: "CAJ-001", Name: "Caja de cartón mediana", Unit: "CJ", Price: decimal.NewFromFloat(2500)},
		{Code: "PLT-900", Name: "Estibas plásticas", Unit: "EA", Price: decimal.NewFromFloat(48000)},
		{Code: "ETQ-050", Name: "Rollo etiquetas térmicas 50mm", Unit: "RL", Price: decimal.NewFromFloat(18500)},
	}
	out := make(map[string]dto.ArticleResponse, len(seed))
	for _, a := range seed {
		out[a.Code] = a
	}
	return out
}

// seedEvents carga unos traslados de ventanilla de ejemplo.
func (st *mockState) seedEvents() {
	now := time.Now().UTC()
	st.events = []dto.EventDTO{
		{EventID: 1, Reference: "TRS-00041", FromWarehouse: "BOD-PRINCIPAL", ToWarehouse: "BOD-NORTE", Message: "traslado listo en ventanilla", OccurredAt: now.Add(-10 * time.Minute)},
		{EventID: 2, Reference: "TRS-00042", FromWarehouse: "BOD-PRINCIPAL", ToWarehouse: "BOD-SUR", Message: "traslado listo en ventanilla", OccurredAt: now.Add(-5 * time.Minute)},
	}
	st.maxEvent = 2
}
