package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
)

type quoteRequest struct {
	Plan   string   `json:"plan" binding:"required"`
	Addons []string `json:"addons" binding:"omitempty,max=20,dive,max=64"`
}

func (s *Server) GetPricingCatalog(c *gin.Context) {
	resp, err := s.productSvc.Catalog(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) QuotePricing(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.pricingSvc.Quote(c.Request.Context(), pricingdomain.QuoteRequest{
		Plan:   strings.TrimSpace(req.Plan),
		Addons: req.Addons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
