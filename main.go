package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/controllers"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/database"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/middleware"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/services"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}
	//seeding admin user
	ctx := context.Background()
	usersCol := database.OpenCollection("users")
	if err := utils.SeedAdminUser(ctx, usersCol); err != nil {
		log.Fatal(err)
	}

	st := store.NewMongo(database.Database())
	notifier := services.NewNotificationService(st)
	tenders := services.NewTenderService(st, notifier, utils.StandstillPeriod())
	contracts := services.NewContractService(st, notifier)
	questions := services.NewQuestionService(st, notifier)
	complaints := services.NewComplaintService(st, notifier)

	docStorage, err := utils.NewDocumentStorage(ctx)
	if err != nil {
		log.Fatal("document storage init: ", err)
	}

	r := gin.New()
	v := utils.NewPDFOrImageValidator()

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	log.Printf("Allowed origins: %v", allowedOrigins)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Act-As"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.POST("/auth/login", controllers.Login())
	r.POST("/auth/refresh", controllers.Refresh())
	r.POST("/auth/logout", controllers.Logout())

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("/tenders", controllers.CreateTender(tenders))
		authed.GET("/tenders", controllers.ListTenders(tenders))
		authed.GET("/tenders/:id", controllers.GetTender(tenders))
		authed.DELETE("/tenders/:id", controllers.DeleteTender(tenders))
		authed.POST("/tenders/:id/publish", controllers.PublishTender(tenders))
		authed.POST("/tenders/:id/close", controllers.CloseTender(tenders))
		authed.POST("/tenders/:id/reopen", controllers.ReopenTender(tenders))
		authed.POST("/tenders/:id/award", controllers.AwardTender(tenders))
		authed.POST("/tenders/:id/bids", controllers.SubmitBid(tenders))
		authed.POST("/tenders/:id/invitations", controllers.InviteSupplier(tenders))
		authed.GET("/tenders/:id/watch", controllers.WatchTender(st))

		authed.POST("/tenders/:id/documents", controllers.UploadTenderDocument(tenders, docStorage, v))
		authed.GET("/tenders/:id/documents/:docId", controllers.DownloadTenderDocument(tenders, docStorage))
		authed.DELETE("/tenders/:id/documents/:docId", controllers.DeleteTenderDocument(tenders, docStorage))

		authed.POST("/tenders/:id/questions", controllers.AddQuestion(questions))
		authed.POST("/tenders/:id/questions/:questionId/answer", controllers.AnswerQuestion(questions))

		authed.POST("/tenders/:id/contract", controllers.GenerateContract(contracts))
		authed.GET("/tenders/:id/contract", controllers.GetContractByTender(contracts))
		authed.GET("/contracts/:id", controllers.GetContract(contracts))
		authed.POST("/contracts/:id/sign", controllers.SignContract(contracts))
		authed.POST("/contracts/:id/changes", controllers.AddContractChange(contracts))

		authed.POST("/complaints", controllers.SubmitComplaint(complaints))
		authed.GET("/complaints/:id", controllers.GetComplaint(complaints))
		authed.PATCH("/complaints/:id/status", controllers.UpdateComplaintStatus(complaints))
		authed.GET("/tenders/:id/complaints", controllers.ListTenderComplaints(complaints))

		authed.GET("/notifications", controllers.ListNotifications(notifier))
		authed.GET("/notifications/unread-count", controllers.UnreadNotificationCount(notifier))
		authed.PATCH("/notifications/:id/read", controllers.MarkNotificationRead(notifier))
		authed.POST("/notifications/read-all", controllers.MarkAllNotificationsRead(notifier))
		authed.DELETE("/notifications/:id", controllers.DeleteNotification(notifier))
		authed.GET("/notifications/watch", controllers.WatchNotifications(st))
		authed.GET("/notifications/preferences", controllers.GetNotificationPreferences(notifier))
		authed.PUT("/notifications/preferences", controllers.UpdateNotificationPreferences(notifier))
	}

	// Deadline reminder loop. Each tick notifies suppliers of open tenders
	// whose deadline falls within the reminder window.
	go func() {
		window := utils.DeadlineReminderWindow()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			tickCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if n, err := tenders.SendDeadlineReminders(tickCtx, window); err != nil {
				log.Printf("deadline reminders: %v", err)
			} else if n > 0 {
				log.Printf("deadline reminders sent for %d tenders", n)
			}
			cancel()
		}
	}()

	// Start server on port 8080 (default)
	r.Run()
}
