package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chow-down/internal/chow"
	"chow-down/internal/logger"
	"chow-down/internal/messaging"
)

// EateryStore is the eatery repository surface the handlers need.
type EateryStore interface {
	GetByID(ctx context.Context, eateryID string) (*chow.Eatery, chow.Errors)
	Locate(ctx context.Context, cuisine string, origin chow.Loc, offset, count int) ([]chow.EaterySummary, chow.Errors)
}

// OrderStore is the order repository surface the handlers need.
type OrderStore interface {
	Create(ctx context.Context, eateryID string) (*chow.Order, chow.Errors)
	Get(ctx context.Context, orderID string) (*chow.Order, chow.Errors)
	EditItem(ctx context.Context, orderID, itemID string, quantity int) (*chow.Order, chow.Errors)
	Remove(ctx context.Context, orderID string) chow.Errors
}

// EventPublisher publishes order lifecycle events.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event, orderID, eateryID string) error
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler translates HTTP requests into repository calls, builds
// HATEOAS links on success and maps domain error lists onto HTTP
// statuses on failure.
type Handler struct {
	eateries  EateryStore
	orders    OrderStore
	publisher EventPublisher // may be nil
	db        Pinger         // may be nil
	logger    *logger.Logger
}

// NewHandler creates an API handler.  publisher and db are optional.
func NewHandler(eateries EateryStore, orders OrderStore, publisher EventPublisher, db Pinger, log *logger.Logger) *Handler {
	return &Handler{
		eateries:  eateries,
		orders:    orders,
		publisher: publisher,
		db:        db,
		logger:    log,
	}
}

// SetupRoutes sets up the HTTP routes.  Method dispatch happens inside
// the handlers so that an unsupported method gets the same JSON 404 as
// an unknown path.
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/eateries/", h.withLogging(h.handleEateries))
	mux.HandleFunc("/orders", h.withLogging(h.handleOrders))
	mux.HandleFunc("/orders/", h.withLogging(h.handleOrder))
	mux.HandleFunc("/health", h.withLogging(h.healthCheck))
	mux.HandleFunc("/", h.withLogging(h.routeNotFound))

	return mux
}

/************************** Eatery Handlers ***************************/

// handleEateries dispatches GET /eateries/{lat},{lng} (geo search) and
// GET /eateries/{eateryId} (detail); the comma decides which.
func (h *Handler) handleEateries(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/eateries/")
	if r.Method != http.MethodGet || key == "" || strings.Contains(key, "/") {
		h.routeNotFound(w, r)
		return
	}
	if strings.Contains(key, ",") {
		h.locateEateries(w, r, key)
		return
	}
	h.getEatery(w, r, key)
}

type locatedEatery struct {
	Links []Link `json:"links"`
	chow.EaterySummary
}

type locateResponse struct {
	Eateries []locatedEatery `json:"eateries"`
	Links    []Link          `json:"links"`
}

// locateEateries handles GET /eateries/{lat},{lng}?cuisine=&offset=&count=.
// It fetches count+1 rows: the probe row only decides whether a next
// link exists and is dropped from the body.
func (h *Handler) locateEateries(w http.ResponseWriter, r *http.Request, key string) {
	requestID := requestIDFrom(r)

	lat, lng, _ := strings.Cut(key, ",")
	params, errs := parseLocateParams(lat, lng, r.URL.Query())
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	rows, errs := h.eateries.Locate(r.Context(), params.cuisine, params.origin, params.offset, params.count+1)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	links := []Link{selfLink(r)}
	if len(rows) > params.count {
		links = append(links, link("next", pageURL(r, params, params.offset+params.count)))
		rows = rows[:params.count]
	}
	if params.offset > 0 && len(rows) > 0 {
		prevOffset := params.offset - params.count
		if prevOffset < 0 {
			prevOffset = 0
		}
		links = append(links, link("prev", pageURL(r, params, prevOffset)))
	}

	eateries := make([]locatedEatery, 0, len(rows))
	for _, row := range rows {
		eateries = append(eateries, locatedEatery{
			Links:         []Link{link("self", eateryURL(r, row.ID))},
			EaterySummary: row,
		})
	}

	h.writeJSON(w, requestID, http.StatusOK, locateResponse{Eateries: eateries, Links: links})
}

// pageURL rebuilds the search URL with a different offset.
func pageURL(r *http.Request, params locateParams, offset int) string {
	query := url.Values{}
	query.Set("cuisine", params.cuisine)
	query.Set("offset", strconv.Itoa(offset))
	query.Set("count", strconv.Itoa(params.count))
	return baseURL(r) + r.URL.Path + "?" + query.Encode()
}

type eateryResponse struct {
	Links []Link `json:"links"`
	*chow.Eatery
}

// getEatery handles GET /eateries/{eateryId}.
func (h *Handler) getEatery(w http.ResponseWriter, r *http.Request, eateryID string) {
	requestID := requestIDFrom(r)

	eatery, errs := h.eateries.GetByID(r.Context(), eateryID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	h.writeJSON(w, requestID, http.StatusOK, eateryResponse{
		Links:  []Link{selfLink(r)},
		Eatery: eatery,
	})
}

/*************************** Order Handlers ***************************/

type orderResponse struct {
	Links []Link `json:"links"`
	*chow.EateryOrder
}

// handleOrders dispatches POST /orders?eateryId=.
func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.routeNotFound(w, r)
		return
	}
	h.createOrder(w, r)
}

// createOrder creates a new empty order for the eatery named by the
// eateryId query parameter and returns its enriched view with status
// 201 and a Location header.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	eateryID := strings.TrimSpace(r.URL.Query().Get("eateryId"))
	if eateryID == "" {
		h.writeErrors(w, requestID, chow.BadReq("missing eateryId parameter"))
		return
	}

	eatery, errs := h.eateries.GetByID(r.Context(), eateryID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	order, errs := h.orders.Create(r.Context(), eateryID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	enriched, errs := chow.Enrich(eatery, order)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	h.publishOrderEvent(r.Context(), requestID, messaging.EventOrderCreated, order.ID, eateryID)

	links := []Link{selfLink(r), eateryLink(r, eateryID), orderLink(r, order.ID)}
	w.Header().Set("Location", orderURL(r, order.ID))
	h.writeJSON(w, requestID, http.StatusCreated, orderResponse{Links: links, EateryOrder: enriched})
}

// handleOrder dispatches GET/PATCH/DELETE /orders/{orderId}.
func (h *Handler) handleOrder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimPrefix(r.URL.Path, "/orders/")
	if orderID == "" || strings.Contains(orderID, "/") {
		h.routeNotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getOrder(w, r, orderID)
	case http.MethodPatch:
		h.editOrder(w, r, orderID)
	case http.MethodDelete:
		h.removeOrder(w, r, orderID)
	default:
		h.routeNotFound(w, r)
	}
}

// getOrder handles GET /orders/{orderId}, returning the enriched order.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	requestID := requestIDFrom(r)

	order, errs := h.orders.Get(r.Context(), orderID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	eatery, errs := h.eateries.GetByID(r.Context(), order.EateryID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	enriched, errs := chow.Enrich(eatery, order)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	links := []Link{selfLink(r), eateryLink(r, order.EateryID)}
	h.writeJSON(w, requestID, http.StatusOK, orderResponse{Links: links, EateryOrder: enriched})
}

// editOrder handles PATCH /orders/{orderId}?itemId=&nItems=, setting
// the item's quantity to exactly nItems.  The item is checked against
// the eatery's menu before the write so a rejected edit never changes
// the stored order.
func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	requestID := requestIDFrom(r)

	itemID, nItems, errs := parseEditParams(orderID, r.URL.Query())
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	order, errs := h.orders.Get(r.Context(), orderID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	eatery, errs := h.eateries.GetByID(r.Context(), order.EateryID)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	if _, ok := eatery.FlatMenu[itemID]; !ok {
		msg := fmt.Sprintf("unknown item-id %q in order %q", itemID, orderID)
		h.writeErrors(w, requestID, chow.NotFound(msg))
		return
	}

	order, errs = h.orders.EditItem(r.Context(), orderID, itemID, nItems)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	enriched, errs := chow.Enrich(eatery, order)
	if errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	h.publishOrderEvent(r.Context(), requestID, messaging.EventOrderUpdated, orderID, order.EateryID)

	links := []Link{selfPathLink(r), eateryLink(r, order.EateryID)}
	h.writeJSON(w, requestID, http.StatusOK, orderResponse{Links: links, EateryOrder: enriched})
}

// removeOrder handles DELETE /orders/{orderId}.
func (h *Handler) removeOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	requestID := requestIDFrom(r)

	if errs := h.orders.Remove(r.Context(), orderID); errs != nil {
		h.writeErrors(w, requestID, errs)
		return
	}

	h.publishOrderEvent(r.Context(), requestID, messaging.EventOrderDeleted, orderID, "")

	h.writeJSON(w, requestID, http.StatusOK, struct{}{})
}

/*************************** Other Handlers ***************************/

// healthCheck handles GET /health requests
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.routeNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.db == nil || h.db.Ping(ctx) == nil

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "chow-down",
		"healthy":   healthy,
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	h.writeJSON(w, requestIDFrom(r), status, response)
}

// routeNotFound answers any unknown route or method with the standard
// JSON error body.
func (h *Handler) routeNotFound(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("%s not supported for %s", r.Method, r.URL.RequestURI())
	h.writeErrors(w, requestIDFrom(r), chow.NotFound(message))
}

/***************************** Plumbing *******************************/

func (h *Handler) publishOrderEvent(ctx context.Context, requestID, event, orderID, eateryID string) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishOrderEvent(ctx, event, orderID, eateryID); err != nil {
		h.logger.Error("event_publish_failed", fmt.Sprintf("Failed to publish %s event", event),
			requestID, err, map[string]interface{}{
				"order_id": orderID,
			})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, requestID string, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

type ctxKey int

const requestIDKey ctxKey = 0

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.Header.Get("User-Agent"),
			})

		// Capture the status code for the completion log
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
