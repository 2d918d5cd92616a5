package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/wms-terminal/internal/application/dto"
	"github.com/jhoicas/wms-terminal/internal/domain"
	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/pkg/logger"
	"github.com/jhoicas/wms-terminal/pkg/token"
)

// headerDatabase cabecera con la base de datos/tenant seleccionada. El
// tenant viaja en cada petición vía el cliente inyectado; no existe ningún
// singleton mutable de "base de datos actual".
const headerDatabase = "X-Database-ID"

// Config parámetros de conexión con el backend WMS.
type Config struct {
	BaseURL    string
	DatabaseID string // base de datos/tenant seleccionada en el login
	Token      string // bearer de la sesión
	Timeout    time.Duration
}

// Client cliente HTTP tipado del backend WMS. Implementa los puertos
// scan.ArticleLookup, ventanilla.EventSource y movement.SubmitPort.
type Client struct {
	httpClient *http.Client
	baseURL    string
	databaseID string
	token      string
	log        *logger.Logger
}

// NewClient construye el cliente. El timeout por defecto es 10 s: el lector
// de códigos bloquea la pantalla durante la búsqueda y no puede esperar más.
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		databaseID: cfg.DatabaseID,
		token:      cfg.Token,
		log:        log,
	}
}

// LookupArticle busca la ficha del artículo por código normalizado.
// Devuelve (nil, nil) si el backend respondió "no encontrado"; un error
// envuelve ErrConectividad (o ErrSesionExpirada) y es distinguible de ese caso.
func (c *Client) LookupArticle(ctx context.Context, code string) (*entity.Article, error) {
	var out dto.ArticleResponse
	found, err := c.getJSON(ctx, "/api/articles/"+url.PathEscape(code), nil, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entity.Article{
		Code:  out.Code,
		Name:  out.Name,
		Unit:  out.Unit,
		Price: out.Price,
	}, nil
}

// EventsSince pide los eventos de ventanilla con id mayor a afterID, acotados
// a pageSize, y devuelve además el máximo id observado en el servidor.
func (c *Client) EventsSince(ctx context.Context, afterID int64, pageSize int) ([]entity.VentanillaEvent, int64, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(afterID, 10))
	q.Set("limit", strconv.Itoa(pageSize))

	var out dto.EventsResponse
	if _, err := c.getJSON(ctx, "/api/ventanilla/events", q, &out); err != nil {
		return nil, 0, err
	}
	events := make([]entity.VentanillaEvent, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, entity.VentanillaEvent{
			EventID:       e.EventID,
			Reference:     e.Reference,
			FromWarehouse: e.FromWarehouse,
			ToWarehouse:   e.ToWarehouse,
			Message:       e.Message,
			OccurredAt:    e.OccurredAt,
		})
	}
	return events, out.MaxEventID, nil
}

// SubmitMovement registra el movimiento construido en el terminal.
func (c *Client) SubmitMovement(ctx context.Context, req dto.SubmitMovementRequest) (*dto.SubmitMovementResponse, error) {
	var out dto.SubmitMovementResponse
	if err := c.postJSON(ctx, "/api/movements", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimVentanilla reclama el traslado anunciado por el evento dado.
func (c *Client) ClaimVentanilla(ctx context.Context, eventID int64) error {
	body := map[string]int64{"event_id": eventID}
	return c.postJSON(ctx, "/api/ventanilla/claim", body, nil)
}

// ── Plomería HTTP ─────────────────────────────────────────────────────────────

// getJSON ejecuta un GET y decodifica la respuesta. Devuelve found=false en
// 404 (o envelope de no-encontrado) sin error; cualquier otro fallo envuelve
// el sentinel correspondiente.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) (bool, error) {
	if err := c.checkSession(); err != nil {
		return false, err
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("construir petición %s: %w", path, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrConectividad, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		return false, domain.ErrSesionExpirada
	case resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return false, domain.ErrNoAutorizado
	case resp.StatusCode != http.StatusOK:
		return false, c.decodeError(path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: respuesta ilegible de %s: %v", domain.ErrConectividad, path, err)
	}
	return true, nil
}

// postJSON ejecuta un POST con body JSON; out puede ser nil.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	if err := c.checkSession(); err != nil {
		return err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("serializar body de %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("construir petición %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConectividad, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		return domain.ErrSesionExpirada
	case resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return domain.ErrNoAutorizado
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.decodeError(path, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: respuesta ilegible de %s: %v", domain.ErrConectividad, path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.databaseID != "" {
		req.Header.Set(headerDatabase, c.databaseID)
	}
}

// checkSession falla rápido con ErrSesionExpirada si el token ya venció,
// evitando el round-trip que de todas formas devolvería 401.
func (c *Client) checkSession() error {
	if c.token == "" {
		return nil
	}
	if token.Expired(c.token, time.Now()) {
		return domain.ErrSesionExpirada
	}
	return nil
}

// decodeError traduce una respuesta de error HTTP a un error de dominio.
func (c *Client) decodeError(path string, resp *http.Response) error {
	var e dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Message != "" {
		c.log.Debug().Str("path", path).Str("code", e.Code).Int("status", resp.StatusCode).Msg("error del backend")
		return fmt.Errorf("backend %s (%s): %s", path, e.Code, e.Message)
	}
	return fmt.Errorf("backend %s: HTTP %d", path, resp.StatusCode)
}
