package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chow-down/internal/chow"
	"chow-down/internal/logger"
)

/****************************** Fakes *********************************/

type fakeEateries struct {
	byID    map[string]chow.Eatery
	located []chow.EaterySummary
}

func (f *fakeEateries) GetByID(ctx context.Context, eateryID string) (*chow.Eatery, chow.Errors) {
	eatery, ok := f.byID[eateryID]
	if !ok {
		return nil, chow.NotFound(fmt.Sprintf("cannot find eatery %q", eateryID))
	}
	return &eatery, nil
}

func (f *fakeEateries) Locate(ctx context.Context, cuisine string, origin chow.Loc, offset, count int) ([]chow.EaterySummary, chow.Errors) {
	if offset >= len(f.located) {
		return []chow.EaterySummary{}, nil
	}
	end := offset + count
	if end > len(f.located) {
		end = len(f.located)
	}
	return f.located[offset:end], nil
}

type fakeOrders struct {
	orders map[string]*chow.Order
	nextID int
}

func (f *fakeOrders) Create(ctx context.Context, eateryID string) (*chow.Order, chow.Errors) {
	f.nextID++
	order := &chow.Order{
		ID:       fmt.Sprintf("%d_11", f.nextID),
		EateryID: eateryID,
		Items:    map[string]int{},
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrders) Get(ctx context.Context, orderID string) (*chow.Order, chow.Errors) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, chow.NotFound(fmt.Sprintf("no order with orderId %s", orderID))
	}
	return order, nil
}

func (f *fakeOrders) EditItem(ctx context.Context, orderID, itemID string, quantity int) (*chow.Order, chow.Errors) {
	if quantity < 0 {
		return nil, chow.BadReq(fmt.Sprintf("cannot have a negative quantity %d", quantity))
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, chow.NotFound(fmt.Sprintf("no order with orderId %s", orderID))
	}
	if quantity == 0 {
		delete(order.Items, itemID)
	} else {
		order.Items[itemID] = quantity
	}
	return order, nil
}

func (f *fakeOrders) Remove(ctx context.Context, orderID string) chow.Errors {
	if _, ok := f.orders[orderID]; !ok {
		return chow.NotFound(fmt.Sprintf("no order with orderId %s", orderID))
	}
	delete(f.orders, orderID)
	return nil
}

type publishedEvent struct {
	event, orderID, eateryID string
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishOrderEvent(ctx context.Context, event, orderID, eateryID string) error {
	f.events = append(f.events, publishedEvent{event, orderID, eateryID})
	return nil
}

/***************************** Helpers ********************************/

func testHandler(t *testing.T) (*http.ServeMux, *fakeEateries, *fakeOrders, *fakePublisher) {
	t.Helper()

	eateries := &fakeEateries{byID: map[string]chow.Eatery{
		"e1": chow.EateryDef{
			ID:      "e1",
			Name:    "Golden Wok",
			Cuisine: "Chinese",
			Loc:     chow.Loc{Lat: 42.09, Lng: -75.97},
			Menu: map[string][]chow.MenuItem{
				"mains": {
					{ID: "A", Name: "Fried Rice", Price: 3},
					{ID: "B", Name: "Lo Mein", Price: 5},
				},
			},
		}.Flatten(),
	}}
	orders := &fakeOrders{orders: map[string]*chow.Order{}}
	publisher := &fakePublisher{}

	handler := NewHandler(eateries, orders, publisher, nil, logger.New("api-test"))
	return handler.SetupRoutes(), eateries, orders, publisher
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func decodeErrors(t *testing.T, recorder *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func linkHrefs(links []Link) map[string]string {
	hrefs := make(map[string]string, len(links))
	for _, l := range links {
		hrefs[l.Name] = l.Href
	}
	return hrefs
}

/************************** Eatery Endpoints **************************/

func summaries(n int) []chow.EaterySummary {
	rows := make([]chow.EaterySummary, n)
	for i := range rows {
		rows[i] = chow.EaterySummary{
			ID:   fmt.Sprintf("e%d", i),
			Name: fmt.Sprintf("Eatery %d", i),
			Dist: float64(i),
		}
	}
	return rows
}

func TestLocateEateries_FirstPage(t *testing.T) {
	mux, eateries, _, _ := testHandler(t)
	eateries.located = summaries(7)

	recorder := doRequest(t, mux, http.MethodGet, "/eateries/42.09,-75.97?cuisine=chinese")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body locateResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	// the probe row must not leak into the page
	require.Len(t, body.Eateries, defaultCount)
	assert.Equal(t, "e0", body.Eateries[0].ID)
	assert.Equal(t, "http://example.com/eateries/e0", body.Eateries[0].Links[0].Href)

	hrefs := linkHrefs(body.Links)
	assert.Contains(t, hrefs, "self")
	assert.Contains(t, hrefs["next"], "offset=5")
	assert.NotContains(t, hrefs, "prev")
}

func TestLocateEateries_LastPage(t *testing.T) {
	mux, eateries, _, _ := testHandler(t)
	eateries.located = summaries(7)

	recorder := doRequest(t, mux, http.MethodGet, "/eateries/42.09,-75.97?cuisine=chinese&offset=5&count=5")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body locateResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	require.Len(t, body.Eateries, 2)
	assert.Equal(t, "e5", body.Eateries[0].ID)

	hrefs := linkHrefs(body.Links)
	assert.Contains(t, hrefs["prev"], "offset=0")
	assert.NotContains(t, hrefs, "next")
}

func TestLocateEateries_NoMatches(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodGet, "/eateries/42.09,-75.97?cuisine=martian")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body locateResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Empty(t, body.Eateries)

	hrefs := linkHrefs(body.Links)
	assert.NotContains(t, hrefs, "next")
	assert.NotContains(t, hrefs, "prev")
}

func TestLocateEateries_BadParams(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodGet, "/eateries/999,-75.97")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeErrors(t, recorder)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	// out-of-range latitude plus missing cuisine
	require.Len(t, body.Errors, 2)
	for _, detail := range body.Errors {
		assert.Equal(t, chow.CodeBadReq, detail.Options.Code)
	}
}

func TestGetEatery(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodGet, "/eateries/e1")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body eateryResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Golden Wok", body.Name)
	assert.Equal(t, []string{"mains"}, body.MenuCategories)
	assert.Equal(t, "http://example.com/eateries/e1", body.Links[0].Href)
}

func TestGetEatery_NotFound(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodGet, "/eateries/nope")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	body := decodeErrors(t, recorder)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, chow.CodeNotFound, body.Errors[0].Options.Code)
}

/*************************** Order Endpoints **************************/

func TestOrderLifecycle(t *testing.T) {
	mux, _, _, publisher := testHandler(t)

	// create
	recorder := doRequest(t, mux, http.MethodPost, "/orders?eateryId=e1")
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created orderResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	orderID := created.ID
	require.NotEmpty(t, orderID)
	assert.Empty(t, created.Items)
	assert.Equal(t, 0.0, created.Total)
	assert.Equal(t, "http://example.com/orders/"+orderID, recorder.Header().Get("Location"))

	hrefs := linkHrefs(created.Links)
	assert.Equal(t, "http://example.com/eateries/e1", hrefs["eatery"])
	assert.Equal(t, "http://example.com/orders/"+orderID, hrefs["order"])

	// set an item quantity
	recorder = doRequest(t, mux, http.MethodPatch, "/orders/"+orderID+"?itemId=A&nItems=2")
	require.Equal(t, http.StatusOK, recorder.Code)

	var edited orderResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &edited))
	require.Len(t, edited.Items, 1)
	assert.Equal(t, "A", edited.Items[0].ID)
	assert.Equal(t, 2, edited.Items[0].Quantity)
	assert.Equal(t, 6.0, edited.Items[0].QuantityPrice)
	assert.Equal(t, 6.0, edited.Total)

	// the self link on an edit drops the query string
	hrefs = linkHrefs(edited.Links)
	assert.Equal(t, "http://example.com/orders/"+orderID, hrefs["self"])

	// negative quantity is rejected
	recorder = doRequest(t, mux, http.MethodPatch, "/orders/"+orderID+"?itemId=A&nItems=-1")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// zero quantity removes the item
	recorder = doRequest(t, mux, http.MethodPatch, "/orders/"+orderID+"?itemId=A&nItems=0")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &edited))
	assert.Empty(t, edited.Items)

	// delete
	recorder = doRequest(t, mux, http.MethodDelete, "/orders/"+orderID)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "{}", recorder.Body.String())

	// gone afterwards
	recorder = doRequest(t, mux, http.MethodGet, "/orders/"+orderID)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	events := make([]string, len(publisher.events))
	for i, e := range publisher.events {
		events[i] = e.event
	}
	assert.Equal(t, []string{"order.created", "order.updated", "order.updated", "order.deleted"}, events)
}

func TestCreateOrder_MissingEateryID(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodPost, "/orders")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeErrors(t, recorder)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "missing eateryId parameter", body.Errors[0].Message)
}

func TestCreateOrder_UnknownEatery(t *testing.T) {
	mux, _, orders, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodPost, "/orders?eateryId=nope")
	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Empty(t, orders.orders)
}

func TestEditOrder_UnknownItem(t *testing.T) {
	mux, _, orders, publisher := testHandler(t)
	orders.orders["1_11"] = &chow.Order{ID: "1_11", EateryID: "e1", Items: map[string]int{"A": 1}}

	recorder := doRequest(t, mux, http.MethodPatch, "/orders/1_11?itemId=nope&nItems=2")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	body := decodeErrors(t, recorder)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, chow.CodeNotFound, body.Errors[0].Options.Code)

	// the rejected edit must not have touched the stored order
	assert.Equal(t, map[string]int{"A": 1}, orders.orders["1_11"].Items)
	assert.Empty(t, publisher.events)

	// and the order stays readable afterwards
	recorder = doRequest(t, mux, http.MethodGet, "/orders/1_11")
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestEditOrder_MissingParams(t *testing.T) {
	mux, _, orders, _ := testHandler(t)
	orders.orders["1_11"] = &chow.Order{ID: "1_11", EateryID: "e1", Items: map[string]int{}}

	recorder := doRequest(t, mux, http.MethodPatch, "/orders/1_11")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeErrors(t, recorder)
	assert.Len(t, body.Errors, 2)
}

/**************************** Route Dispatch **************************/

func TestRouteNotFound(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	tests := []struct {
		name   string
		method string
		target string
	}{
		{"unknown path", http.MethodGet, "/nope"},
		{"bad method on orders", http.MethodGet, "/orders"},
		{"bad method on order", http.MethodPut, "/orders/1_11"},
		{"bad method on eateries", http.MethodPost, "/eateries/e1"},
		{"trailing segment", http.MethodGet, "/eateries/e1/menu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doRequest(t, mux, tt.method, tt.target)
			require.Equal(t, http.StatusNotFound, recorder.Code)

			body := decodeErrors(t, recorder)
			require.Len(t, body.Errors, 1)
			assert.Equal(t, chow.CodeNotFound, body.Errors[0].Options.Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	mux, _, _, _ := testHandler(t)

	recorder := doRequest(t, mux, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["healthy"])
}
