package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/middlewares"
	"etix/src/models"
	"etix/src/models/scopes"
	"etix/src/types"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventsCacheTTL = 30 * time.Second

// publicRoutes exposes the browse surface: anyone can list published events
// and inspect a seat map without an account.
func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/events", func(ctx *gin.Context) {
			var filters types.EventsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			cacheKey := fmt.Sprintf("events:%s", ctx.Request.URL.RawQuery)
			rd := lib.GetRedisClient()
			if rd != nil {
				cached, err := rd.Get(context.Background(), cacheKey).Result()
				if err != nil && !errors.Is(redis.Nil, err) {
					log.Printf("Error reading from cache: %s\n", err.Error())
				}
				if cached != "" {
					ctx.Data(http.StatusOK, "application/json", []byte(cached))
					return
				}
			}

			db := db.GetDb()
			q := db.
				Model(&models.Event{}).
				Scopes(scopes.Published, scopes.Upcoming)
			if filters.Category != "" {
				q = q.Where("category = ?", filters.Category)
			}
			if filters.City != "" {
				q = q.Where("venue_city = ?", filters.City)
			}
			if filters.From != "" {
				from, err := time.Parse(config.TIME_PARSE_FORMAT, filters.From)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
					return
				}
				q = q.Where("start_at >= ?", from)
			}
			if filters.To != "" {
				to, err := time.Parse(config.TIME_PARSE_FORMAT, filters.To)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
					return
				}
				q = q.Where("start_at <= ?", to)
			}
			if filters.Text != "" {
				text := fmt.Sprintf("%%%s%%", filters.Text)
				q = q.Where("title ILIKE ? OR description ILIKE ?", text, text)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var events []models.Event
			offset := (filters.Page - 1) * filters.Limit
			if err := q.
				Order("start_at asc").
				Offset(offset).
				Limit(filters.Limit).
				Find(&events).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}

			pages := (total + int64(filters.Limit) - 1) / int64(filters.Limit)
			payload := gin.H{
				"data": events,
				"pagination": types.Pagination{
					Page:  filters.Page,
					Limit: filters.Limit,
					Total: total,
					Pages: pages,
				},
			}
			body, _ := json.Marshal(payload)
			if rd != nil {
				rd.SetEx(context.Background(), cacheKey, string(body), eventsCacheTTL)
			}
			ctx.Data(http.StatusOK, "application/json", body)
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var event models.Event
			if err := db.
				Model(&models.Event{}).
				Scopes(scopes.Published).
				Preload("Seats", func(tx *gorm.DB) *gorm.DB {
					return tx.Order("label asc")
				}).
				Where(&models.Event{ID: params.ID}).
				First(&event).
				Error; err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return apiv1
}

// adminEventHandlers covers the organizer surface: create and update events
// and generate seat inventory.
func adminEventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	admin := g.Group("/admin")
	admin.Use(middlewares.RequireRole(types.ROLE_ADMIN))
	admin.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			startAt, _ := time.Parse(config.TIME_PARSE_FORMAT, body.StartAt)
			endAt, _ := time.Parse(config.TIME_PARSE_FORMAT, body.EndAt)

			eventSlug := body.Slug
			if eventSlug == "" {
				eventSlug = slug.Make(fmt.Sprintf("%s %s", body.Title, startAt.Format("2006-01-02")))
			}
			currency := body.CurrencyCode
			if currency == "" {
				currency = "USD"
			}

			event := models.Event{
				Title:        body.Title,
				Category:     body.Category,
				Slug:         eventSlug,
				VenueName:    body.VenueName,
				VenueCity:    body.VenueCity,
				CurrencyCode: currency,
				PriceCents:   body.PriceCents,
				Capacity:     body.Capacity,
				Published:    body.Publish,
				StartAt:      startAt,
				EndAt:        endAt,
				OrganizerID:  ctx.GetUint("id"),
			}
			if body.Description != "" {
				event.Description = &body.Description
			}
			if body.CoverImageURL != "" {
				event.CoverImageURL = &body.CoverImageURL
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&event).Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": event})
		}).
		PATCH("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updates := map[string]any{}
			if body.Title != nil {
				updates["title"] = *body.Title
			}
			if body.Description != nil {
				updates["description"] = *body.Description
			}
			if body.Category != nil {
				updates["category"] = *body.Category
			}
			if body.StartAt != nil {
				startAt, _ := time.Parse(config.TIME_PARSE_FORMAT, *body.StartAt)
				updates["start_at"] = startAt
			}
			if body.EndAt != nil {
				endAt, _ := time.Parse(config.TIME_PARSE_FORMAT, *body.EndAt)
				updates["end_at"] = endAt
			}
			if body.VenueName != nil {
				updates["venue_name"] = *body.VenueName
			}
			if body.VenueCity != nil {
				updates["venue_city"] = *body.VenueCity
			}
			if body.CoverImageURL != nil {
				updates["cover_image_url"] = *body.CoverImageURL
			}
			if body.PriceCents != nil {
				updates["price_cents"] = *body.PriceCents
			}
			if body.Capacity != nil {
				updates["capacity"] = *body.Capacity
			}
			if body.Published != nil {
				updates["published"] = *body.Published
			}
			if len(updates) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
				return
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.Event{}).
					Where("id = ?", params.ID).
					Updates(updates)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return gorm.ErrRecordNotFound
				}
				return nil
			})
			if err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/events/:id/sections", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateSectionsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var created int
			err := db.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.
					Where(&models.Event{ID: params.ID}).
					First(&event).
					Error; err != nil {
					return err
				}
				var committed int64
				if err := tx.
					Model(&models.Seat{}).
					Where("event_id = ? AND status <> ?", event.ID, types.SEAT_AVAILABLE).
					Count(&committed).
					Error; err != nil {
					return err
				}
				if committed > 0 {
					return errors.New("cannot regenerate seats after sales started")
				}
				if err := tx.
					Unscoped().
					Where("event_id = ?", event.ID).
					Delete(&models.Seat{}).
					Error; err != nil {
					return err
				}
				for _, section := range body.Sections {
					sectionName := section.Name
					for r := uint(0); r < section.Rows; r++ {
						rowLetter := string(rune('A' + section.StartRow + r))
						for c := uint(0); c < section.Cols; c++ {
							seat := models.Seat{
								EventID: event.ID,
								Label:   fmt.Sprintf("%s%d", rowLetter, section.StartCol+c+1),
								Section: &sectionName,
								Row:     section.StartRow + r,
								Col:     section.StartCol + c,
								Status:  types.SEAT_AVAILABLE,
							}
							if section.PriceAdjCents != 0 {
								price := event.PriceCents + section.PriceAdjCents
								seat.PriceCents = &price
							}
							if err := tx.Create(&seat).Error; err != nil {
								return err
							}
							created++
						}
					}
				}
				return nil
			})
			if err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"count": created})
		}).
		GET("/orders", func(ctx *gin.Context) {
			db := db.GetDb()
			var orders []models.Order
			ss := db.Session(&gorm.Session{PrepareStmt: true})
			if err := ss.
				Preload("Event").
				Preload("User").
				Preload("Tickets").
				Order("created_at desc").
				Limit(200).
				Find(&orders).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders, "count": len(orders)})
		})
	return admin
}
