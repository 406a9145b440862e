package controllers

import (
	"net/http"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/dto"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/middleware"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/services"
	"github.com/gin-gonic/gin"
)

func AddQuestion(svc *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body dto.AddQuestionDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q, err := svc.Add(c.Request.Context(), middleware.Session(c), id, body.Text)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, q)
	}
}

func AnswerQuestion(svc *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		questionID, ok := pathID(c, "questionId")
		if !ok {
			return
		}
		var body dto.AnswerQuestionDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q, err := svc.Answer(c.Request.Context(), middleware.Session(c), id, questionID, body.Answer)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}
