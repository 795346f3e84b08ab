package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/njchilds90/gointegral/calculator"
)

// handleCalculate answers with 200 for every calculation outcome; the body
// carries success. Undecodable bodies and unknown types are 400.
func (s *Server) handleCalculate(c *gin.Context) {
	var req calculator.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.calc.Calculate(c.Request.Context(), req))
}

func (s *Server) handleTool(c *gin.Context) {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()

	var req calculator.ToolRequest
	if err := dec.Decode(&req); err != nil {
		abortWithError(c, err)
		return
	}
	if dec.More() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: trailing data"})
		return
	}
	if req.Tool == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing tool"})
		return
	}
	c.JSON(http.StatusOK, s.calc.HandleTool(c.Request.Context(), req))
}

func (s *Server) handleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(calculator.ToolSpec()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func abortWithError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
