package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"etix/src/config"
	"etix/src/db"
	"etix/src/middlewares"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

type APITestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Router *gin.Engine
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := conn.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	err = conn.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Seat{},
		&models.SeatLock{},
		&models.Order{},
		&models.Ticket{},
	)
	s.Require().NoError(err)
	db.NewDB(conn)
	s.DB = conn

	registerValidators()
	router := setupRouter()
	publicRoutes(router)
	guestAuthRoutes(router)
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		checkoutHandlers(authorized)
		walletHandlers(authorized)
		validationHandlers(authorized)
		adminEventHandlers(authorized)
	}
	s.Router = router
}

func (s *APITestSuite) request(method, target, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) createUserWithRole(email string, role types.UserRole) (*models.User, string) {
	hash, err := utils.HashPassword("password123")
	s.Require().NoError(err)
	user := models.User{Name: "Suite User", Email: email, PasswordHash: hash, Role: role}
	s.Require().NoError(s.DB.Create(&user).Error)
	token, err := utils.GenerateJWT(&user)
	s.Require().NoError(err)
	return &user, token
}

func (s *APITestSuite) createEvent(published bool) *models.Event {
	now := time.Now()
	event := models.Event{
		Title:        "Suite Show",
		Category:     "comedy",
		Slug:         fmt.Sprintf("suite-show-%d", now.UnixNano()),
		VenueName:    "Suite Arena",
		VenueCity:    "Suiteville",
		CurrencyCode: "USD",
		PriceCents:   1200,
		Capacity:     50,
		Published:    published,
		StartAt:      now.Add(48 * time.Hour),
		EndAt:        now.Add(50 * time.Hour),
	}
	s.Require().NoError(s.DB.Create(&event).Error)
	return &event
}

func (s *APITestSuite) TestHealthRoute() {
	w := s.request(http.MethodGet, "/", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestRegisterAndLogin() {
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", types.RegisterUserRequestBody{
		Name:     "New User",
		Email:    "new@test.io",
		Password: "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.NotEmpty(gjson.Get(w.Body.String(), "token").String())

	w = s.request(http.MethodPost, "/api/v1/auth/login", "", types.LoginRequestBody{
		Email:    "new@test.io",
		Password: "password123",
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(gjson.Get(w.Body.String(), "token").String())

	w = s.request(http.MethodPost, "/api/v1/auth/login", "", types.LoginRequestBody{
		Email:    "new@test.io",
		Password: "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestDuplicateRegistrationRejected() {
	body := types.RegisterUserRequestBody{Name: "Dup", Email: "dup@test.io", Password: "password123"}
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Require().Equal(http.StatusCreated, w.Code)
	w = s.request(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *APITestSuite) TestEventsListingShowsOnlyPublished() {
	s.createEvent(true)
	s.createEvent(false)

	w := s.request(http.MethodGet, "/api/v1/events", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	s.Equal(int64(1), gjson.Get(body, "data.#").Int())
	s.Equal(int64(1), gjson.Get(body, "pagination.total").Int())
}

func (s *APITestSuite) TestEventDetailIncludesSeats() {
	event := s.createEvent(true)
	seat := models.Seat{EventID: event.ID, Label: "A1", Status: types.SEAT_AVAILABLE}
	s.Require().NoError(s.DB.Create(&seat).Error)

	w := s.request(http.MethodGet, fmt.Sprintf("/api/v1/events/%d", event.ID), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	s.Equal("A1", gjson.Get(body, "data.seats.0.label").String())
}

func (s *APITestSuite) TestUnpublishedEventDetailIsHidden() {
	event := s.createEvent(false)
	w := s.request(http.MethodGet, fmt.Sprintf("/api/v1/events/%d", event.ID), "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestCheckoutRequiresAuth() {
	w := s.request(http.MethodPost, "/api/v1/checkout/session", "", types.CreateCheckoutRequestBody{})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestCheckoutConflictOnTakenSeats() {
	alice, _ := s.createUserWithRole("alice@suite.io", types.ROLE_USER)
	_, bobToken := s.createUserWithRole("bob@suite.io", types.ROLE_USER)
	event := s.createEvent(true)
	seat := models.Seat{EventID: event.ID, Label: "B1", Status: types.SEAT_AVAILABLE}
	s.Require().NoError(s.DB.Create(&seat).Error)

	_, _, _, err := utils.CreateReservation(alice.ID, &types.CreateCheckoutRequestBody{
		EventID: event.ID,
		Type:    types.ORDER_SEATED,
		SeatIDs: []uint{seat.ID},
	})
	s.Require().NoError(err)

	w := s.request(http.MethodPost, "/api/v1/checkout/session", bobToken, types.CreateCheckoutRequestBody{
		EventID: event.ID,
		Type:    types.ORDER_SEATED,
		SeatIDs: []uint{seat.ID},
	})
	s.Require().Equal(http.StatusConflict, w.Code)
	s.Equal(types.REASON_SEATS_UNAVAILABLE, gjson.Get(w.Body.String(), "code").String())
}

func (s *APITestSuite) TestValidateRequiresValidatorRole() {
	_, userToken := s.createUserWithRole("plain@suite.io", types.ROLE_USER)
	w := s.request(http.MethodPost, "/api/v1/tickets/validate", userToken, types.ValidateTicketRequestBody{Code: "whatever"})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APITestSuite) TestValidateEndpointOutcomes() {
	_, validatorToken := s.createUserWithRole("door@suite.io", types.ROLE_VALIDATOR)
	user, _ := s.createUserWithRole("holder@suite.io", types.ROLE_USER)

	event := s.createEvent(true)
	s.Require().NoError(s.DB.
		Model(&models.Event{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"start_at": time.Now().Add(1 * time.Hour),
			"end_at":   time.Now().Add(3 * time.Hour),
		}).Error)

	order, _, _, err := utils.CreateReservation(user.ID, &types.CreateCheckoutRequestBody{
		EventID: event.ID,
		Type:    types.ORDER_GA,
		Qty:     1,
	})
	s.Require().NoError(err)
	tickets, err := utils.FulfillOrder(order.ID, "pi_suite")
	s.Require().NoError(err)
	s.Require().Len(tickets, 1)

	w := s.request(http.MethodPost, "/api/v1/tickets/validate", validatorToken, types.ValidateTicketRequestBody{Code: tickets[0].Code})
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(gjson.Get(w.Body.String(), "ok").Bool())
	s.Equal(types.REASON_VALIDATED, gjson.Get(w.Body.String(), "code").String())

	w = s.request(http.MethodPost, "/api/v1/tickets/validate", validatorToken, types.ValidateTicketRequestBody{Code: tickets[0].Code})
	s.Require().Equal(http.StatusOK, w.Code)
	s.False(gjson.Get(w.Body.String(), "ok").Bool())
	s.Equal(types.REASON_ALREADY_SCANNED, gjson.Get(w.Body.String(), "code").String())

	w = s.request(http.MethodPost, "/api/v1/tickets/validate", validatorToken, types.ValidateTicketRequestBody{Code: "bogus"})
	s.Require().Equal(http.StatusNotFound, w.Code)
	s.Equal(types.REASON_INVALID_TICKET, gjson.Get(w.Body.String(), "code").String())
}

func (s *APITestSuite) TestWalletListsOwnedTickets() {
	user, token := s.createUserWithRole("wallet@suite.io", types.ROLE_USER)
	event := s.createEvent(true)
	order, _, _, err := utils.CreateReservation(user.ID, &types.CreateCheckoutRequestBody{
		EventID: event.ID,
		Type:    types.ORDER_GA,
		Qty:     2,
	})
	s.Require().NoError(err)
	_, err = utils.FulfillOrder(order.ID, "pi_wallet")
	s.Require().NoError(err)

	w := s.request(http.MethodGet, "/api/v1/wallet", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(int64(2), gjson.Get(w.Body.String(), "count").Int())
}

func (s *APITestSuite) TestAdminEventCreateRequiresAdmin() {
	_, userToken := s.createUserWithRole("nonadmin@suite.io", types.ROLE_USER)
	w := s.request(http.MethodPost, "/api/v1/admin/events", userToken, gin.H{})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APITestSuite) TestAdminCreatesEventAndSections() {
	_, adminToken := s.createUserWithRole("admin@suite.io", types.ROLE_ADMIN)
	startAt := time.Now().Add(72 * time.Hour).Format(config.TIME_PARSE_FORMAT)
	endAt := time.Now().Add(75 * time.Hour).Format(config.TIME_PARSE_FORMAT)

	w := s.request(http.MethodPost, "/api/v1/admin/events", adminToken, types.CreateEventRequestBody{
		Title:      "Admin Gala",
		Category:   "gala",
		StartAt:    startAt,
		EndAt:      endAt,
		VenueName:  "Grand Hall",
		VenueCity:  "Metropolis",
		PriceCents: 5000,
		Capacity:   200,
		Publish:    true,
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	eventID := gjson.Get(w.Body.String(), "data.id").Uint()
	s.NotZero(eventID)
	s.NotEmpty(gjson.Get(w.Body.String(), "data.slug").String())

	w = s.request(http.MethodPost, fmt.Sprintf("/api/v1/admin/events/%d/sections", eventID), adminToken, types.CreateSectionsRequestBody{
		Sections: []types.SectionRequest{
			{Name: "Orchestra", Rows: 2, Cols: 3, PriceAdjCents: 1000},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal(int64(6), gjson.Get(w.Body.String(), "count").Int())

	var seats []models.Seat
	s.DB.Where("event_id = ?", eventID).Order("label asc").Find(&seats)
	s.Require().Len(seats, 6)
	s.Equal("A1", seats[0].Label)
	s.Require().NotNil(seats[0].PriceCents)
	s.Equal(int64(6000), *seats[0].PriceCents)
}

func (s *APITestSuite) TestAdminRejectsPastEventDates() {
	_, adminToken := s.createUserWithRole("admin2@suite.io", types.ROLE_ADMIN)
	startAt := time.Now().Add(-72 * time.Hour).Format(config.TIME_PARSE_FORMAT)
	endAt := time.Now().Add(-70 * time.Hour).Format(config.TIME_PARSE_FORMAT)

	w := s.request(http.MethodPost, "/api/v1/admin/events", adminToken, types.CreateEventRequestBody{
		Title:      "Past Show",
		Category:   "music",
		StartAt:    startAt,
		EndAt:      endAt,
		VenueName:  "Hall",
		VenueCity:  "City",
		PriceCents: 1000,
		Capacity:   10,
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
