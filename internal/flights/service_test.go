package flights

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"airline/internal/types"
)

// --- Mock AirlineRepo ---

type mockAirlineRepo struct {
	mock.Mock
}

func (m *mockAirlineRepo) GetByName(ctx context.Context, name string) (*types.Airline, error) {
	args := m.Called(ctx, name)
	if a := args.Get(0); a != nil {
		return a.(*types.Airline), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAirlineRepo) LockByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock PlaneRepo ---

type mockPlaneRepo struct {
	mock.Mock
}

func (m *mockPlaneRepo) GetByRegistrationCode(ctx context.Context, code string) (*types.Plane, error) {
	args := m.Called(ctx, code)
	if p := args.Get(0); p != nil {
		return p.(*types.Plane), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlaneRepo) ListByAirline(ctx context.Context, airlineID string) ([]*types.Plane, error) {
	args := m.Called(ctx, airlineID)
	if p := args.Get(0); p != nil {
		return p.([]*types.Plane), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Mock FlightRepo ---

type mockFlightRepo struct {
	mock.Mock
}

func (m *mockFlightRepo) Create(ctx context.Context, f *types.Flight) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockFlightRepo) GetByID(ctx context.Context, id string) (*types.Flight, error) {
	args := m.Called(ctx, id)
	if f := args.Get(0); f != nil {
		return f.(*types.Flight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFlightRepo) Update(ctx context.Context, f *types.Flight) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockFlightRepo) MarkDeparted(ctx context.Context, id string, departDate time.Time) error {
	args := m.Called(ctx, id, departDate)
	return args.Error(0)
}

func (m *mockFlightRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockFlightRepo) AppendStatus(ctx context.Context, ev *types.StatusEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *mockFlightRepo) ListByAirline(ctx context.Context, airlineID string, departed bool) ([]*types.Flight, error) {
	args := m.Called(ctx, airlineID, departed)
	if f := args.Get(0); f != nil {
		return f.([]*types.Flight), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Mock TxManager ---

// mockTxManager executes the callback immediately with the pre-configured
// transaction repos, simulating a committed transaction unless an error is
// configured.
type mockTxManager struct {
	mock.Mock
	repos TxRepos
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx, m.repos)
}

// --- Mock DepartureNotifier ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) FlightDeparted(ctx context.Context, f *types.Flight) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

// --- Fixed Clock ---

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// --- Test Fixtures ---

const testAirlineName = "aeroline"

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testAirline() *types.Airline {
	return &types.Airline{
		ID:         "al_test",
		Name:       testAirlineName,
		PlaneCount: 2,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testPlane() *types.Plane {
	return &types.Plane{
		ID:               "pl_test",
		Model:            "Airbus A320",
		Capacity:         180,
		RegistrationCode: "EC-AAA",
		AirlineID:        "al_test",
		CreatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func pendingFlight() *types.Flight {
	return &types.Flight{
		ID:          "fl_test",
		Origin:      "Madrid",
		Destination: "Paris",
		ETD:         testNow.Add(24 * time.Hour),
		ETA:         testNow.Add(27 * time.Hour),
		HasDeparted: false,
		Statuses: []types.StatusEvent{
			{ID: "se_1", FlightID: "fl_test", Status: types.StatusPending, StatusDate: testNow.Add(-time.Hour)},
		},
		Plane: testPlane(),
	}
}

func departedFlight() *types.Flight {
	f := pendingFlight()
	departAt := testNow.Add(-30 * time.Minute)
	f.HasDeparted = true
	f.DepartDate = &departAt
	f.Statuses = append(f.Statuses, types.StatusEvent{
		ID: "se_2", FlightID: f.ID, Status: types.StatusDeparted, StatusDate: departAt,
	})
	return f
}

type serviceMocks struct {
	airlines *mockAirlineRepo
	planes   *mockPlaneRepo
	flights  *mockFlightRepo
	tx       *mockTxManager
	notifier *mockNotifier
}

func newTestService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		airlines: new(mockAirlineRepo),
		planes:   new(mockPlaneRepo),
		flights:  new(mockFlightRepo),
		notifier: new(mockNotifier),
	}
	repos := TxRepos{Airlines: m.airlines, Planes: m.planes, Flights: m.flights}
	m.tx = &mockTxManager{repos: repos}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(testAirlineName, repos, m.tx, m.notifier, &fixedClock{now: testNow}, logger)
	return svc, m
}

func appErrCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

// ============================================================
// GetAirline
// ============================================================

func TestGetAirline_Success(t *testing.T) {
	svc, m := newTestService()
	airline := testAirline()

	m.airlines.On("GetByName", mock.Anything, testAirlineName).Return(airline, nil)
	m.planes.On("ListByAirline", mock.Anything, airline.ID).Return([]*types.Plane{testPlane()}, nil)

	info, err := svc.GetAirline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, airline, info.Airline)
	assert.Len(t, info.Planes, 1)
}

func TestGetAirline_NotFound(t *testing.T) {
	svc, m := newTestService()

	m.airlines.On("GetByName", mock.Anything, testAirlineName).Return(nil,
		types.NewAppError(types.ErrCodeNotFoundAirline, "Cannot find airline with name: "+testAirlineName, nil))

	_, err := svc.GetAirline(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundAirline, appErrCode(t, err))
	assert.Contains(t, err.Error(), "Cannot find airline with name: "+testAirlineName)
}

// ============================================================
// AddFlight
// ============================================================

func validCreateInput() CreateFlightInput {
	return CreateFlightInput{
		Origin:                "Madrid",
		Destination:           "Paris",
		ETD:                   testNow.Add(24 * time.Hour),
		ETA:                   testNow.Add(27 * time.Hour),
		PlaneRegistrationCode: "EC-AAA",
	}
}

func TestAddFlight_Success(t *testing.T) {
	svc, m := newTestService()
	plane := testPlane()

	m.planes.On("GetByRegistrationCode", mock.Anything, "EC-AAA").Return(plane, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
	m.airlines.On("LockByID", mock.Anything, plane.AirlineID).Return(nil)
	m.flights.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.flights.On("AppendStatus", mock.Anything, mock.Anything).Return(nil)

	flight, err := svc.AddFlight(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.NotEmpty(t, flight.ID)
	assert.False(t, flight.HasDeparted)
	assert.Nil(t, flight.DepartDate)
	assert.Equal(t, plane, flight.Plane)
	require.Len(t, flight.Statuses, 1)
	assert.Equal(t, types.StatusPending, flight.Statuses[0].Status)
	assert.Equal(t, testNow, flight.Statuses[0].StatusDate)

	// Timestamps come from the service clock and are set before the insert,
	// so a later read returns exactly what creation reported.
	assert.Equal(t, testNow, flight.CreatedAt)
	assert.Equal(t, testNow, flight.UpdatedAt)

	m.airlines.AssertCalled(t, "LockByID", mock.Anything, "al_test")
	m.flights.AssertCalled(t, "Create", mock.Anything, flight)
}

func TestAddFlight_BadSchedule(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	in.ETA = in.ETD.Add(-time.Hour) // eta before etd

	_, err := svc.AddFlight(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidSchedule, appErrCode(t, err))
	assert.Contains(t, err.Error(), "Estimated date of departure (etd)")

	// Schedule validation fires before any lookup or write.
	m.planes.AssertNotCalled(t, "GetByRegistrationCode", mock.Anything, mock.Anything)
	m.tx.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
}

func TestAddFlight_EqualEtdEta(t *testing.T) {
	svc, _ := newTestService()

	in := validCreateInput()
	in.ETA = in.ETD // eta must be strictly after etd

	_, err := svc.AddFlight(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidSchedule, appErrCode(t, err))
}

func TestAddFlight_PlaneNotFound(t *testing.T) {
	svc, m := newTestService()

	m.planes.On("GetByRegistrationCode", mock.Anything, "EC-AAA").Return(nil,
		types.NewAppError(types.ErrCodeNotFoundPlane, "Cannot find plane with registration code: EC-AAA", nil))

	_, err := svc.AddFlight(context.Background(), validCreateInput())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundPlane, appErrCode(t, err))
	assert.Contains(t, err.Error(), "Cannot find plane with registration code: EC-AAA")

	m.tx.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
}

func TestAddFlight_PlaneWithoutAirline(t *testing.T) {
	svc, m := newTestService()
	plane := testPlane()
	plane.AirlineID = ""

	m.planes.On("GetByRegistrationCode", mock.Anything, "EC-AAA").Return(plane, nil)

	_, err := svc.AddFlight(context.Background(), validCreateInput())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundAirline, appErrCode(t, err))

	m.tx.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
}

func TestAddFlight_TxFailureNothingReturned(t *testing.T) {
	svc, m := newTestService()
	plane := testPlane()

	m.planes.On("GetByRegistrationCode", mock.Anything, "EC-AAA").Return(plane, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(
		types.NewAppError(types.ErrCodeInternalDB, "failed to begin transaction", nil))

	flight, err := svc.AddFlight(context.Background(), validCreateInput())
	require.Error(t, err)
	assert.Nil(t, flight)
	assert.Equal(t, types.ErrCodeInternalDB, appErrCode(t, err))
}

// ============================================================
// FindFlightByID / GetFlightStatus
// ============================================================

func TestFindFlightByID_NotFound(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_missing").Return(nil,
		types.NewAppError(types.ErrCodeNotFoundFlight, "Cannot find flight with ID: fl_missing", nil))

	_, err := svc.FindFlightByID(context.Background(), "fl_missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundFlight, appErrCode(t, err))
	assert.Contains(t, err.Error(), "Cannot find flight with ID: fl_missing")
}

func TestGetFlightStatus_Pending(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(pendingFlight(), nil)

	info, err := svc.GetFlightStatus(context.Background(), "fl_test")
	require.NoError(t, err)
	assert.False(t, info.HasDeparted)
	assert.Nil(t, info.DepartDate)
}

func TestGetFlightStatus_Departed(t *testing.T) {
	svc, m := newTestService()
	f := departedFlight()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)

	info, err := svc.GetFlightStatus(context.Background(), "fl_test")
	require.NoError(t, err)
	assert.True(t, info.HasDeparted)
	require.NotNil(t, info.DepartDate)
	assert.Equal(t, *f.DepartDate, *info.DepartDate)
}

// ============================================================
// UpdateFlightByID
// ============================================================

func strPtr(s string) *string       { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func TestUpdateFlight_DepartedFlightStillPatchable(t *testing.T) {
	svc, m := newTestService()
	f := departedFlight()
	departDate := *f.DepartDate

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.flights.On("Update", mock.Anything, f).Return(nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{Origin: strPtr("Rome")})
	require.NoError(t, err)

	assert.Equal(t, "Rome", f.Origin)
	assert.True(t, f.HasDeparted)
	require.NotNil(t, f.DepartDate)
	assert.Equal(t, departDate, *f.DepartDate)
	m.flights.AssertCalled(t, "Update", mock.Anything, f)
}

func TestUpdateFlight_BlankOrigin(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(pendingFlight(), nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{Origin: strPtr("   ")})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationBlankField, appErrCode(t, err))
	assert.Contains(t, err.Error(), "origin cannot be blank")

	m.flights.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateFlight_BlankDestination(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(pendingFlight(), nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{Destination: strPtr("")})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationBlankField, appErrCode(t, err))
	assert.Contains(t, err.Error(), "destination cannot be blank")
}

func TestUpdateFlight_PastEtd(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(pendingFlight(), nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{ETD: timePtr(testNow.Add(-time.Hour))})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidSchedule, appErrCode(t, err))

	m.flights.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateFlight_EtaBeforeEtd(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)

	// New eta is in the future but before the current etd.
	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{ETA: timePtr(f.ETD.Add(-time.Hour))})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidSchedule, appErrCode(t, err))
}

func TestUpdateFlight_Success(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()
	newEtd := testNow.Add(48 * time.Hour)
	newEta := testNow.Add(51 * time.Hour)

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.flights.On("Update", mock.Anything, f).Return(nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{
		Origin:      strPtr("  Rome "),
		Destination: strPtr("Berlin"),
		ETD:         timePtr(newEtd),
		ETA:         timePtr(newEta),
	})
	require.NoError(t, err)

	assert.Equal(t, "Rome", f.Origin)
	assert.Equal(t, "Berlin", f.Destination)
	assert.Equal(t, newEtd, f.ETD)
	assert.Equal(t, newEta, f.ETA)
	assert.False(t, f.HasDeparted)
	m.flights.AssertCalled(t, "Update", mock.Anything, f)
}

func TestUpdateFlight_ReassignPlane(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()
	other := &types.Plane{ID: "pl_other", Model: "Boeing 737", Capacity: 160, RegistrationCode: "EC-BBB", AirlineID: "al_test"}

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.planes.On("GetByRegistrationCode", mock.Anything, "EC-BBB").Return(other, nil)
	m.flights.On("Update", mock.Anything, f).Return(nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{PlaneRegistrationCode: strPtr("EC-BBB")})
	require.NoError(t, err)
	assert.Equal(t, other, f.Plane)
}

func TestUpdateFlight_BlankPlaneCodeIsNoop(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()
	original := f.Plane

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.flights.On("Update", mock.Anything, f).Return(nil)

	err := svc.UpdateFlightByID(context.Background(), "fl_test", UpdateFlightInput{PlaneRegistrationCode: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, original, f.Plane)
	m.planes.AssertNotCalled(t, "GetByRegistrationCode", mock.Anything, mock.Anything)
}

// ============================================================
// DepartFlight
// ============================================================

func TestDepartFlight_Success(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
	m.airlines.On("LockByID", mock.Anything, "al_test").Return(nil)
	m.flights.On("MarkDeparted", mock.Anything, "fl_test", testNow).Return(nil)
	m.flights.On("AppendStatus", mock.Anything, mock.MatchedBy(func(ev *types.StatusEvent) bool {
		return ev.Status == types.StatusDeparted && ev.StatusDate.Equal(testNow) && ev.FlightID == "fl_test"
	})).Return(nil)
	m.notifier.On("FlightDeparted", mock.Anything, f).Return(nil)

	err := svc.DepartFlight(context.Background(), "fl_test")
	require.NoError(t, err)

	// depart_date and the DEPARTED event share one timestamp.
	m.flights.AssertCalled(t, "MarkDeparted", mock.Anything, "fl_test", testNow)
	m.notifier.AssertCalled(t, "FlightDeparted", mock.Anything, f)
}

func TestDepartFlight_AlreadyDeparted(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(departedFlight(), nil)

	err := svc.DepartFlight(context.Background(), "fl_test")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeConflictFlightDeparted, appErrCode(t, err))
	assert.Contains(t, err.Error(), "Flight with ID: fl_test has already departed")

	m.tx.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
	m.notifier.AssertNotCalled(t, "FlightDeparted", mock.Anything, mock.Anything)
}

func TestDepartFlight_RaceLostInsideLock(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
	m.airlines.On("LockByID", mock.Anything, "al_test").Return(nil)
	// A concurrent depart committed first; the guarded update affects no rows.
	m.flights.On("MarkDeparted", mock.Anything, "fl_test", testNow).Return(
		types.NewAppError(types.ErrCodeConflictFlightDeparted, "Flight with ID: fl_test has already departed", nil))

	err := svc.DepartFlight(context.Background(), "fl_test")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeConflictFlightDeparted, appErrCode(t, err))

	m.flights.AssertNotCalled(t, "AppendStatus", mock.Anything, mock.Anything)
	m.notifier.AssertNotCalled(t, "FlightDeparted", mock.Anything, mock.Anything)
}

func TestDepartFlight_NotifierFailureDoesNotPropagate(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
	m.airlines.On("LockByID", mock.Anything, "al_test").Return(nil)
	m.flights.On("MarkDeparted", mock.Anything, "fl_test", testNow).Return(nil)
	m.flights.On("AppendStatus", mock.Anything, mock.Anything).Return(nil)
	m.notifier.On("FlightDeparted", mock.Anything, f).Return(assertAnError())

	err := svc.DepartFlight(context.Background(), "fl_test")
	require.NoError(t, err)
}

func assertAnError() error {
	return types.NewAppError(types.ErrCodeInternalUnexpected, "webhook unavailable", nil)
}

// ============================================================
// DeleteFlightByID
// ============================================================

func TestDeleteFlight_Success(t *testing.T) {
	svc, m := newTestService()
	f := pendingFlight()

	m.flights.On("GetByID", mock.Anything, "fl_test").Return(f, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
	m.airlines.On("LockByID", mock.Anything, "al_test").Return(nil)
	m.flights.On("Delete", mock.Anything, "fl_test").Return(nil)

	err := svc.DeleteFlightByID(context.Background(), "fl_test")
	require.NoError(t, err)

	m.airlines.AssertCalled(t, "LockByID", mock.Anything, "al_test")
	m.flights.AssertCalled(t, "Delete", mock.Anything, "fl_test")
}

func TestDeleteFlight_NotFound(t *testing.T) {
	svc, m := newTestService()

	m.flights.On("GetByID", mock.Anything, "fl_missing").Return(nil,
		types.NewAppError(types.ErrCodeNotFoundFlight, "Cannot find flight with ID: fl_missing", nil))

	err := svc.DeleteFlightByID(context.Background(), "fl_missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundFlight, appErrCode(t, err))

	m.tx.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
}

// ============================================================
// Listings
// ============================================================

func TestGetPendingFlights_Empty(t *testing.T) {
	svc, m := newTestService()
	airline := testAirline()

	m.airlines.On("GetByName", mock.Anything, testAirlineName).Return(airline, nil)
	m.flights.On("ListByAirline", mock.Anything, airline.ID, false).Return(nil, nil)

	list, err := svc.GetPendingFlights(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGetDepartedFlights(t *testing.T) {
	svc, m := newTestService()
	airline := testAirline()
	f := departedFlight()

	m.airlines.On("GetByName", mock.Anything, testAirlineName).Return(airline, nil)
	m.flights.On("ListByAirline", mock.Anything, airline.ID, true).Return([]*types.Flight{f}, nil)

	list, err := svc.GetDepartedFlights(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].HasDeparted)
}

// Lifecycle scenario: a flight is created pending, shows up nowhere else,
// departs exactly once, and the second depart attempt conflicts.
func TestLifecycle_CreateDepartConflict(t *testing.T) {
	svc, m := newTestService()
	plane := testPlane()

	m.planes.On("GetByRegistrationCode", mock.Anything, "EC-AAA").Return(plane, nil)
	m.tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
	m.airlines.On("LockByID", mock.Anything, "al_test").Return(nil)
	m.flights.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.flights.On("AppendStatus", mock.Anything, mock.Anything).Return(nil)

	flight, err := svc.AddFlight(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.False(t, flight.HasDeparted)

	m.flights.On("GetByID", mock.Anything, flight.ID).Return(flight, nil)
	m.flights.On("MarkDeparted", mock.Anything, flight.ID, testNow).Return(nil)
	m.notifier.On("FlightDeparted", mock.Anything, flight).Return(nil)

	require.NoError(t, svc.DepartFlight(context.Background(), flight.ID))
	assert.True(t, flight.HasDeparted)
	require.NotNil(t, flight.DepartDate)
	assert.Equal(t, testNow, *flight.DepartDate)

	// The flight object is now departed; a second depart is a conflict.
	err = svc.DepartFlight(context.Background(), flight.ID)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeConflictFlightDeparted, appErrCode(t, err))
}
