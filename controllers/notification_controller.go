package controllers

import (
	"io"
	"net/http"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/dto"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/middleware"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/services"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/utils"
	"github.com/gin-gonic/gin"
)

func ListNotifications(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		maxLimit, defaultLimit := utils.GetDefaultQueryLimits()
		limit := utils.ParseIntDefault(c.Query("limit"), defaultLimit)
		if limit > maxLimit {
			limit = maxLimit
		}
		items, err := svc.ListForUser(c.Request.Context(), middleware.Session(c), limit)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func UnreadNotificationCount(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := svc.UnreadCount(c.Request.Context(), middleware.Session(c))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func MarkNotificationRead(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		n, err := svc.MarkAsRead(c.Request.Context(), middleware.Session(c), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func MarkAllNotificationsRead(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		marked, err := svc.MarkAllAsRead(c.Request.Context(), middleware.Session(c))
		if err != nil {
			// some may have been marked before the failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "partial failure", "marked": marked})
			return
		}
		c.JSON(http.StatusOK, gin.H{"marked": marked})
	}
}

func DeleteNotification(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), middleware.Session(c), id); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func GetNotificationPreferences(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefs, err := svc.Preferences(c.Request.Context(), middleware.Session(c))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, prefs)
	}
}

// WatchNotifications streams the caller's notifications as server-sent
// events, one "notification" event per write, until the client disconnects.
func WatchNotifications(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.Session(c)

		updates := make(chan *models.Notification, 8)
		errs := make(chan error, 1)
		cancel, err := st.WatchUserNotifications(c.Request.Context(), sess.EffectiveID(),
			func(n *models.Notification) {
				select {
				case updates <- n:
				default: // slow client, drop the update
				}
			},
			func(err error) {
				select {
				case errs <- err:
				default:
				}
			},
		)
		if err != nil {
			handleError(c, err)
			return
		}
		defer cancel()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Stream(func(w io.Writer) bool {
			select {
			case n := <-updates:
				c.SSEvent("notification", n)
				return true
			case <-errs:
				return false
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

func UpdateNotificationPreferences(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdatePreferencesDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.UpdatePreferences(c.Request.Context(), middleware.Session(c), body.Preferences); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
