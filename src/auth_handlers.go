package main

import (
	"errors"
	"log"
	"net/http"

	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		POST("/auth/register", func(ctx *gin.Context) {
			var body types.RegisterUserRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			hash, err := utils.HashPassword(body.Password)
			if err != nil {
				log.Printf("Error hashing password: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			user := models.User{
				Name:         body.Name,
				Email:        body.Email,
				PasswordHash: hash,
				Role:         types.ROLE_USER,
			}
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				var existing int64
				if err := tx.
					Model(&models.User{}).
					Where("email = ?", body.Email).
					Count(&existing).
					Error; err != nil {
					return err
				}
				if existing > 0 {
					return errors.New("email is already registered")
				}
				return tx.Create(&user).Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			token, err := utils.GenerateJWT(&user)
			if err != nil {
				log.Printf("Error signing token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
		}).
		POST("/auth/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var user models.User
			if err := db.
				Where(&models.User{Email: body.Email}).
				First(&user).
				Error; err != nil {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			if !utils.CheckPassword(user.PasswordHash, body.Password) {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			token, err := utils.GenerateJWT(&user)
			if err != nil {
				log.Printf("Error signing token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token, "user": user})
		})
	return apiv1
}
