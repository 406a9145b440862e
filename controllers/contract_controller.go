package controllers

import (
	"net/http"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/dto"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/middleware"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/services"
	"github.com/gin-gonic/gin"
)

func GenerateContract(svc *services.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenderID, ok := pathID(c, "id")
		if !ok {
			return
		}
		contract, err := svc.Generate(c.Request.Context(), middleware.Session(c), tenderID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, contract)
	}
}

func GetContract(svc *services.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		contract, err := svc.Get(c.Request.Context(), middleware.Session(c), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

func GetContractByTender(svc *services.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenderID, ok := pathID(c, "id")
		if !ok {
			return
		}
		contract, err := svc.GetByTender(c.Request.Context(), middleware.Session(c), tenderID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

func SignContract(svc *services.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		contract, err := svc.Sign(c.Request.Context(), middleware.Session(c), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

func AddContractChange(svc *services.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body dto.AddContractChangeDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		contract, err := svc.AddChange(c.Request.Context(), middleware.Session(c), id, body.Description)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}
