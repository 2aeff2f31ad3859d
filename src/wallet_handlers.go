package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"etix/src/db"
	"etix/src/lib"
	awslib "etix/src/lib/aws"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// walletHandlers is the buyer surface: owned tickets plus the QR image a
// ticket is presented with at the door.
func walletHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/wallet", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			db := db.GetDb()
			var tickets []models.Ticket
			ss := db.Session(&gorm.Session{PrepareStmt: true})
			if err := ss.
				Where(&models.Ticket{OwnerID: userID}).
				Preload("Event").
				Preload("Seat").
				Order("issued_at desc").
				Find(&tickets).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets, "count": len(tickets)})
		}).
		GET("/wallet/orders", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			db := db.GetDb()
			var orders []models.Order
			ss := db.Session(&gorm.Session{PrepareStmt: true})
			if err := ss.
				Where(&models.Order{UserID: userID}).
				Preload("Event").
				Preload("Tickets").
				Order("created_at desc").
				Find(&orders).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders, "count": len(orders)})
		}).
		GET("/tickets/:id/qrcode", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userID := ctx.GetUint("id")
			db := db.GetDb()
			var ticket models.Ticket
			if err := db.
				Where(&models.Ticket{ID: params.ID, OwnerID: userID}).
				Preload("Event").
				First(&ticket).
				Error; err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			now := time.Now()
			if now.After(ticket.Event.EndAt) {
				ctx.JSON(http.StatusGone, gin.H{"error": "Ticket is no longer valid"})
				return
			}

			filename := fmt.Sprintf("ticketcode_%d", ticket.ID)
			log.Printf("Download eticket for %s\n", filename)
			rd := lib.GetRedisClient()
			var content string
			if rd != nil {
				cached, err := rd.Get(context.Background(), filename).Result()
				if err != nil && !errors.Is(redis.Nil, err) {
					log.Printf("Error reading from cache: %s\n", err.Error())
				}
				content = cached
			}
			if content != "" {
				tempdir := os.Getenv("TEMP_DIR")
				filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
				if err := awslib.S3DownloadAsset(filename); err != nil {
					log.Printf("Error downloading asset [%s] from S3 bucket: %s\n", filename, err.Error())
					ctx.Status(http.StatusBadRequest)
					return
				}
				ctx.FileAttachment(filepath, "eticket.jpeg")
				return
			}

			filepath, err := utils.SaveTicketCodeImage(ticket.Code, filename)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if awslib.S3Enabled() {
				url, err := awslib.S3UploadAsset(filename, filepath)
				if err != nil {
					log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
				} else if rd != nil {
					rd.SetEx(context.Background(), filename, *url, 2*time.Hour)
				}
			}
			ctx.FileAttachment(filepath, "eticket.jpeg")
		})
	return g
}
