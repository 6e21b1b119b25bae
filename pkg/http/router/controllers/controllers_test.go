package controllers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gobwas/ws/wsutil"
	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/concurrent"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	"github.com/lintang-b-s/courierx/pkg/dataset"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/dispatch"
	"github.com/lintang-b-s/courierx/pkg/engine/planner"
	"github.com/lintang-b-s/courierx/pkg/engine/ranking"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
	"github.com/lintang-b-s/courierx/pkg/guidance"
	helper "github.com/lintang-b-s/courierx/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/courierx/pkg/util"
	"go.uber.org/zap"
)

type fakeRoutingService struct {
	calls       int
	err         error
	lastVehicle pkg.VehicleType
	lastTraffic *costfunction.TrafficSnapshot
	lastK       int
}

func (f *fakeRoutingService) result() da.PathResult {
	return da.NewPathResult([]da.Index{0, 1, 2}, 2.5, 2.0, []da.Index{0, 1, 2}, 4)
}

func (f *fakeRoutingService) ShortestRoute(origLat, origLon, dstLat, dstLon float64) (
	da.PathResult, string, []guidance.Instruction, error) {
	f.calls++
	if f.err != nil {
		return da.PathResult{}, "", nil, f.err
	}
	return f.result(), "poly", nil, nil
}

func (f *fakeRoutingService) WeightedRoute(origLat, origLon, dstLat, dstLon float64,
	vehicle pkg.VehicleType, traffic *costfunction.TrafficSnapshot) (
	da.PathResult, string, []guidance.Instruction, error) {
	f.calls++
	f.lastVehicle = vehicle
	f.lastTraffic = traffic
	if f.err != nil {
		return da.PathResult{}, "", nil, f.err
	}
	return f.result(), "poly", nil, nil
}

func (f *fakeRoutingService) HeuristicRoute(origLat, origLon, dstLat, dstLon float64,
	vehicle pkg.VehicleType, traffic *costfunction.TrafficSnapshot) (
	da.PathResult, string, []guidance.Instruction, error) {
	f.calls++
	f.lastVehicle = vehicle
	if f.err != nil {
		return da.PathResult{}, "", nil, f.err
	}
	return f.result(), "poly", nil, nil
}

func (f *fakeRoutingService) AlternativeRouteSearch(origLat, origLon, dstLat, dstLon float64,
	k int, vehicle pkg.VehicleType) (routing.AlternativeRoutes, []string, error) {
	f.calls++
	f.lastK = k
	f.lastVehicle = vehicle
	if f.err != nil {
		return routing.AlternativeRoutes{}, nil, f.err
	}
	return routing.NewAlternativeRoutes(k, []da.PathResult{f.result()}), []string{"poly"}, nil
}

func newRoutingHandler(f *fakeRoutingService) http.Handler {
	router := httprouter.New()
	NewRouteAPI(f, zap.NewNop()).Routes(helper.NewRouteGroup(router, "/api"))
	return router
}

const routeQuery = "origin_lat=-6.17&origin_lon=106.82&destination_lat=-6.18&destination_lon=106.83"

func TestShortestRouteEndpoint(t *testing.T) {
	fake := &fakeRoutingService{}
	handler := newRoutingHandler(fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/routes/shortest?"+routeQuery, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data routeResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Data.Strategy != "shortest" {
		t.Errorf("want strategy shortest got %q", payload.Data.Strategy)
	}
	if len(payload.Data.Route) != 3 || payload.Data.Polyline != "poly" {
		t.Errorf("unexpected payload %+v", payload.Data)
	}
	if payload.Data.Cost != 2.5 || payload.Data.DistanceKm != 2.0 {
		t.Errorf("unexpected cost %f dist %f", payload.Data.Cost, payload.Data.DistanceKm)
	}
}

func TestShortestRouteMissingParam(t *testing.T) {
	handler := newRoutingHandler(&fakeRoutingService{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/routes/shortest?origin_lat=-6.17&origin_lon=106.82&destination_lat=-6.18", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 got %d", rec.Code)
	}
	var payload errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(payload.Error.Message, "destination_lon") {
		t.Errorf("error must name the missing param, got %q", payload.Error.Message)
	}
}

func TestRouteErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", util.WrapErrorf(nil, util.ErrNotFound, "no route"), http.StatusNotFound},
		{"bad param", util.WrapErrorf(nil, util.ErrBadParamInput, "bad vehicle"), http.StatusBadRequest},
		{"internal", util.WrapErrorf(nil, util.ErrInternalServerError, "boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newRoutingHandler(&fakeRoutingService{err: tc.err})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
				"/api/routes/shortest?"+routeQuery, nil))

			if rec.Code != tc.want {
				t.Fatalf("want %d got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			var payload errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("err: %v", err)
			}
			if payload.Error.Code != http.StatusText(tc.want) {
				t.Errorf("want code %q got %q", http.StatusText(tc.want), payload.Error.Code)
			}
		})
	}
}

func TestWeightedRouteParsesVehicleAndTraffic(t *testing.T) {
	fake := &fakeRoutingService{}
	handler := newRoutingHandler(fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/routes/weighted?"+routeQuery+"&vehicle=bajaji&traffic=1-2:1.5,3-4:2.25", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastVehicle != pkg.VEHICLE_BAJAJI {
		t.Errorf("want bajaji got %v", fake.lastVehicle)
	}
	if fake.lastTraffic == nil || fake.lastTraffic.Len() != 2 {
		t.Errorf("want 2 traffic overrides got %+v", fake.lastTraffic)
	}
}

func TestWeightedRouteRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown vehicle", routeQuery + "&vehicle=plane"},
		{"traffic without multiplier", routeQuery + "&traffic=1-2"},
		{"traffic multiplier below one", routeQuery + "&traffic=1-2:0.5"},
		{"traffic missing dash", routeQuery + "&traffic=12:1.5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeRoutingService{}
			handler := newRoutingHandler(fake)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
				"/api/routes/weighted?"+tc.query, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400 got %d", rec.Code)
			}
			if fake.calls != 0 {
				t.Error("service must not run on rejected input")
			}
		})
	}
}

func TestAlternativeRoutesEndpoint(t *testing.T) {
	fake := &fakeRoutingService{}
	handler := newRoutingHandler(fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/routes/alternatives?"+routeQuery+"&k=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastK != 3 {
		t.Errorf("want k 3 got %d", fake.lastK)
	}
	var payload struct {
		Data alternativeRoutesResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Data.Requested != 3 || payload.Data.Delivered != 1 {
		t.Errorf("unexpected payload %+v", payload.Data)
	}
	if payload.Data.Routes[0].Strategy != "alternative" {
		t.Errorf("want strategy alternative got %q", payload.Data.Routes[0].Strategy)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/routes/alternatives?"+routeQuery+"&k=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("k=0 must be rejected, got %d", rec.Code)
	}
}

type fakeDeliveryService struct {
	lastTopK    int
	lastCuisine []string
	lastSize    pkg.OrderSize
	lastBackups int
	lastVehicle pkg.VehicleType
	restaurants []ranking.RankedRestaurant
	users       []dataset.User
}

func (f *fakeDeliveryService) RankRestaurants(userLat, userLon float64, preferredCuisine []string,
	topK int) (da.Index, []ranking.RankedRestaurant, error) {
	f.lastTopK = topK
	f.lastCuisine = preferredCuisine
	return 7, f.restaurants, nil
}

func (f *fakeDeliveryService) AssignDriver(restaurantLat, restaurantLon float64,
	orderSize pkg.OrderSize, numBackups int) (dispatch.Assignment, error) {
	f.lastSize = orderSize
	f.lastBackups = numBackups
	return dispatch.Assignment{RestaurantNode: 3}, nil
}

func (f *fakeDeliveryService) PlanDelivery(driverLat, driverLon, restaurantLat, restaurantLon,
	userLat, userLon float64, vehicle pkg.VehicleType) (planner.DeliveryPlan, error) {
	f.lastVehicle = vehicle
	return planner.DeliveryPlan{TotalDistance: 5.5, VehicleType: vehicle.String()}, nil
}

func (f *fakeDeliveryService) Users() []dataset.User {
	return f.users
}

func newDeliveryHandler(f *fakeDeliveryService) http.Handler {
	router := httprouter.New()
	NewDeliveryAPI(f, zap.NewNop()).Routes(helper.NewRouteGroup(router, "/api"))
	return router
}

func TestRankRestaurantsDefaultsTopK(t *testing.T) {
	fake := &fakeDeliveryService{}
	handler := newDeliveryHandler(fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/delivery/rank",
		strings.NewReader(`{"user_lat":-6.17,"user_lon":106.82,"preferred_cuisine":["nyama"]}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastTopK != 5 {
		t.Errorf("want default top_k 5 got %d", fake.lastTopK)
	}
	if len(fake.lastCuisine) != 1 || fake.lastCuisine[0] != "nyama" {
		t.Errorf("cuisine filter lost: %v", fake.lastCuisine)
	}
	var payload struct {
		Data rankResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Data.UserNode != 7 || payload.Data.Count != 0 {
		t.Errorf("unexpected payload %+v", payload.Data)
	}
}

func TestAssignDriverBackupsDefaultAndExplicitZero(t *testing.T) {
	fake := &fakeDeliveryService{}
	handler := newDeliveryHandler(fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/delivery/assign",
		strings.NewReader(`{"restaurant_lat":-6.17,"restaurant_lon":106.82,"order_size":"large"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastBackups != 2 {
		t.Errorf("want default num_backups 2 got %d", fake.lastBackups)
	}
	if fake.lastSize != pkg.GetOrderSize("large") {
		t.Errorf("order size lost: %v", fake.lastSize)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/delivery/assign",
		strings.NewReader(`{"restaurant_lat":-6.17,"restaurant_lon":106.82,"num_backups":0}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastBackups != 0 {
		t.Errorf("explicit zero backups must be honored, got %d", fake.lastBackups)
	}
}

func TestListUsers(t *testing.T) {
	fake := &fakeDeliveryService{users: []dataset.User{
		{ID: 1, Name: "Sari", Lat: -6.1739, Lon: 106.8281},
		{ID: 2, Name: "Daud", Lat: -6.1661, Lon: 106.8319},
	}}
	handler := newDeliveryHandler(fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/delivery/users", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data []dataset.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(payload.Data) != 2 || payload.Data[0].Name != "Sari" {
		t.Errorf("unexpected roster %+v", payload.Data)
	}
}

func TestPlanDeliveryVehicleHandling(t *testing.T) {
	fake := &fakeDeliveryService{}
	handler := newDeliveryHandler(fake)

	body := `{"driver_lat":-6.17,"driver_lon":106.82,"restaurant_lat":-6.18,` +
		`"restaurant_lon":106.83,"user_lat":-6.19,"user_lon":106.84}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/delivery/plan",
		strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastVehicle != pkg.VEHICLE_BODA {
		t.Errorf("want default vehicle boda got %v", fake.lastVehicle)
	}

	body = `{"driver_lat":-6.17,"driver_lon":106.82,"restaurant_lat":-6.18,` +
		`"restaurant_lon":106.83,"user_lat":-6.19,"user_lon":106.84,"vehicle_type":"rocket"}`
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/delivery/plan",
		strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown vehicle must be rejected, got %d", rec.Code)
	}
}

type fakeGraphService struct {
	graph   *da.RoadGraph
	lastOp  string
	version uint64
}

func (f *fakeGraphService) GetGraph() *da.RoadGraph {
	return f.graph
}

func (f *fakeGraphService) CloseRoad(from, to da.Index) (da.OutEdge, uint64, error) {
	f.lastOp = "close"
	f.version++
	return *da.NewOutEdge(to, 1.0, 1.0, 1.0, "Jalan Veteran"), f.version, nil
}

func (f *fakeGraphService) ReopenRoad(from, to da.Index) (da.OutEdge, uint64, error) {
	f.lastOp = "reopen"
	f.version++
	return *da.NewOutEdge(to, 1.0, 1.0, 1.0, "Jalan Veteran"), f.version, nil
}

func newGraphHandler(t *testing.T, f *fakeGraphService) (http.Handler, *Hub) {
	t.Helper()
	pool := concurrent.NewWorkerPool[int, int](2, 2)
	pool.Spawn(2)
	hub := NewHub(pool, zap.NewNop())

	router := httprouter.New()
	NewGraphAPI(f, hub, zap.NewNop()).Routes(helper.NewRouteGroup(router, "/api"))
	return router, hub
}

func buildInfoGraph(t *testing.T) *da.RoadGraph {
	t.Helper()
	g := da.NewRoadGraph()
	for i, c := range [][2]float64{{-6.17, 106.82}, {-6.18, 106.83}, {-6.19, 106.84}} {
		if err := g.AddNode(da.NewNode(da.Index(i), c[0], c[1], "")); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	if err := g.AddEdge(0, 1, 1.0, 1.0, 1.0, "Jalan Veteran"); err != nil {
		t.Fatalf("err: %v", err)
	}
	return g
}

func TestGraphInfoEndpoint(t *testing.T) {
	handler, _ := newGraphHandler(t, &fakeGraphService{graph: buildInfoGraph(t)})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph/info", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data graphInfoResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Data.TotalNodes != 3 || payload.Data.TotalEdges != 1 {
		t.Errorf("unexpected counts %+v", payload.Data)
	}
	if payload.Data.Components != 2 {
		t.Errorf("want 2 components got %d", payload.Data.Components)
	}
	if len(payload.Data.Edges) != 1 || payload.Data.Edges[0].From != 0 || payload.Data.Edges[0].To != 1 {
		t.Errorf("unexpected edges %+v", payload.Data.Edges)
	}
}

func TestClosureEndpoints(t *testing.T) {
	fake := &fakeGraphService{graph: buildInfoGraph(t)}
	handler, _ := newGraphHandler(t, fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/graph/closure",
		strings.NewReader(`{"from":0,"to":1}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastOp != "close" {
		t.Errorf("want close got %q", fake.lastOp)
	}
	var payload struct {
		Data closureResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Data.Action != "closed" || payload.Data.From != 0 || payload.Data.To != 1 {
		t.Errorf("unexpected payload %+v", payload.Data)
	}
	if payload.Data.Version != 1 {
		t.Errorf("want version 1 got %d", payload.Data.Version)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/graph/closure",
		strings.NewReader(`{"from":0,"to":1}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastOp != "reopen" {
		t.Errorf("want reopen got %q", fake.lastOp)
	}
}

func TestClosureValidation(t *testing.T) {
	fake := &fakeGraphService{graph: buildInfoGraph(t)}
	handler, _ := newGraphHandler(t, fake)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/graph/closure",
		strings.NewReader(`{"from":1,"to":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("identical endpoints must be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/graph/closure",
		strings.NewReader(`{"from":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing to must be rejected, got %d", rec.Code)
	}
	if fake.lastOp != "" {
		t.Error("service must not run on rejected input")
	}
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	pool := concurrent.NewWorkerPool[int, int](2, 2)
	pool.Spawn(2)
	hub := NewHub(pool, zap.NewNop())

	server, client := net.Pipe()
	defer client.Close()
	hub.Register(server)
	if hub.NumberOfUsers() != 1 {
		t.Fatalf("want 1 subscriber got %d", hub.NumberOfUsers())
	}

	edge := da.NewOutEdge(2, 1.0, 1.0, 1.0, "Jalan Veteran")
	hub.Broadcast(NewClosureResponse("closed", 1, *edge, 9))

	data, err := wsutil.ReadServerText(client)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var payload struct {
		Event closureResponse `json:"event"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Event.Action != "closed" || payload.Event.From != 1 || payload.Event.To != 2 {
		t.Errorf("unexpected event %+v", payload.Event)
	}
	if payload.Event.Version != 9 {
		t.Errorf("want version 9 got %d", payload.Event.Version)
	}
}

func TestHubAnswersPing(t *testing.T) {
	pool := concurrent.NewWorkerPool[int, int](2, 2)
	pool.Spawn(2)
	hub := NewHub(pool, zap.NewNop())

	server, client := net.Pipe()
	defer client.Close()
	user := hub.Register(server)

	reply := make(chan []byte, 1)
	go func() {
		defer close(reply)
		if err := wsutil.WriteClientText(client, []byte(`{"action":"ping"}`)); err != nil {
			t.Errorf("err: %v", err)
			return
		}
		data, err := wsutil.ReadServerText(client)
		if err != nil {
			t.Errorf("err: %v", err)
			return
		}
		reply <- data
	}()

	if err := user.HandleRequest(); err != nil {
		t.Fatalf("err: %v", err)
	}
	data, ok := <-reply
	if !ok {
		t.Fatal("no reply frame")
	}
	var payload struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Event != "pong" {
		t.Errorf("want pong got %q", payload.Event)
	}
}
