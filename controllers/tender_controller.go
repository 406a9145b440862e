package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/dto"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/middleware"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/services"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func CreateTender(svc *services.TenderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateTenderDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var projectID *bson.ObjectID
		if body.ProjectID != "" {
			id, err := bson.ObjectIDFromHex(body.ProjectID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid projectId"})
				return
			}
			projectID = &id
		}

		t, err := svc.Create(c.Request.Context(), middleware.Session(c),
			body.Title, body.Description, models.ContractStandard(body.ContractStandard), body.Deadline, projectID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func GetTender(svc *services.TenderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		t, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func ListTenders(svc *services.TenderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListForUser(c.Request.Context(), middleware.Session(c))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func DeleteTender(svc *services.TenderService) gin.HandlerFunc {
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

// transitionHandler factors the three status-change endpoints; they differ
// only in which service method runs.
func transitionHandler(fn func(context.Context, models.SessionContext, bson.ObjectID) (*models.Tender, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		t, err := fn(c.Request.Context(), middleware.Session(c), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func PublishTender(svc *services.TenderService) gin.HandlerFunc {
	return transitionHandler(svc.Publish)
}

func CloseTender(svc *services.TenderService) gin.HandlerFunc {
	return transitionHandler(svc.Close)
}

func ReopenTender(svc *services.TenderService) gin.HandlerFunc {
	return transitionHandler(svc.Reopen)
}

func AwardTender(svc *services.TenderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body dto.AwardTenderDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bidID, err := bson.ObjectIDFromHex(body.BidID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bidId"})
			return
		}
		t, err := svc.Award(c.Request.Context(), middleware.Session(c), id, bidID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func SubmitBid(svc *services.TenderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body dto.SubmitBidDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bid, err := svc.SubmitBid(c.Request.Context(), middleware.Session(c), id, body.Price, body.PriceStructure)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bid)
	}
}

func InviteSupplier(svc *services.TenderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body dto.InviteSupplierDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		supplierID, err := bson.ObjectIDFromHex(body.SupplierID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplierId"})
			return
		}
		t, err := svc.InviteSupplier(c.Request.Context(), middleware.Session(c), id, supplierID, body.Email)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func UploadTenderDocument(svc *services.TenderService, storage utils.DocumentStorage, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if _, err := v.ValidateFile(fh); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		objectName := utils.TenderObjectName(id.Hex(), fh.Filename)
		doc, err := storage.Upload(ctx, objectName, fh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		t, err := svc.AttachDocument(ctx, middleware.Session(c), id, *doc)
		if err != nil {
			// tender rejected the document, remove the orphaned object
			_ = storage.Delete(ctx, objectName)
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func DeleteTenderDocument(svc *services.TenderService, storage utils.DocumentStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		docID, ok := pathID(c, "docId")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		removed, err := svc.DetachDocument(ctx, middleware.Session(c), id, docID)
		if err != nil {
			handleError(c, err)
			return
		}
		// metadata is gone either way; object deletion is best effort
		_ = storage.Delete(ctx, removed.ObjectName)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func DownloadTenderDocument(svc *services.TenderService, storage utils.DocumentStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		docID, ok := pathID(c, "docId")
		if !ok {
			return
		}

		t, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			handleError(c, err)
			return
		}
		var doc *models.TenderDocument
		for i := range t.Documents {
			if t.Documents[i].ID == docID {
				doc = &t.Documents[i]
				break
			}
		}
		if doc == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		c.Header("Content-Type", doc.MimeType)
		c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
		if _, err := storage.Download(ctx, doc.ObjectName, c.Writer); err != nil {
			// headers may already be out; nothing better to do than abort
			c.Abort()
			return
		}
	}
}

// WatchTender streams the tender as server-sent events, one "tender" event per
// change, until the client disconnects.
func WatchTender(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		updates := make(chan *models.Tender, 8)
		errs := make(chan error, 1)
		cancel, err := st.WatchTender(c.Request.Context(), id,
			func(t *models.Tender) {
				select {
				case updates <- t:
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
			case t := <-updates:
				c.SSEvent("tender", t)
				return true
			case <-errs:
				return false
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
