package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/jobboard/internal/payment/domain"
)

type createPaymentOrderRequest struct {
	Plan   string   `json:"plan" binding:"required"`
	Addons []string `json:"addons" binding:"omitempty,max=20,dive,max=64"`
}

func (s *Server) CreatePayPalOrder(c *gin.Context) {
	var req createPaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.paymentSvc.CreateOrder(c.Request.Context(), paymentdomain.CreateOrderRequest{
		Plan:   strings.TrimSpace(req.Plan),
		Addons: req.Addons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CapturePayPalOrder(c *gin.Context) {
	resp, err := s.paymentSvc.CaptureOrder(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
