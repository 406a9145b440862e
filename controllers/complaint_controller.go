package controllers

import (
	"net/http"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/dto"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/middleware"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func SubmitComplaint(svc *services.ComplaintService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.SubmitComplaintDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tenderID, err := bson.ObjectIDFromHex(body.TenderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenderId"})
			return
		}
		complaint, err := svc.Submit(c.Request.Context(), middleware.Session(c), tenderID, body.Text)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, complaint)
	}
}

func GetComplaint(svc *services.ComplaintService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		complaint, err := svc.Get(c.Request.Context(), middleware.Session(c), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, complaint)
	}
}

func ListTenderComplaints(svc *services.ComplaintService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenderID, ok := pathID(c, "id")
		if !ok {
			return
		}
		items, err := svc.ListForTender(c.Request.Context(), middleware.Session(c), tenderID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func UpdateComplaintStatus(svc *services.ComplaintService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateComplaintStatusDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		complaint, err := svc.UpdateStatus(c.Request.Context(), middleware.Session(c), id, models.ComplaintStatus(body.Status))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, complaint)
	}
}
