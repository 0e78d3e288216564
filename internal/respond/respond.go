// Package respond wraps every handler response in the {success,data?,error?}
// envelope required by the HTTP surface (spec §6), translating domainerr
// codes to their prescribed status via domainerr.StatusAndMessage.
package respond

import (
	"net/http"

	"prediction-market/internal/domainerr"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Err writes a failure envelope, mapping the error to its taxonomy status.
func Err(c *gin.Context, err error) {
	status, msg := domainerr.StatusAndMessage(err)
	c.JSON(status, envelope{Success: false, Error: msg})
}

// BadRequest writes a 400 envelope for request-shape errors that never made
// it to the domain layer (e.g. JSON bind failures).
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: err.Error()})
}
