package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ewaste-check/internal/usecase"
)

func (h *api) listBins(c *gin.Context) {
	bins, err := h.svc.Admin.ListBins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bins": bins})
}

func (h *api) createBin(c *gin.Context) {
	var req usecase.CreateBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	bin, err := h.svc.Admin.CreateBin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "bin": bin})
}

func (h *api) updateBin(c *gin.Context) {
	var patch usecase.BinPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if err := h.svc.Admin.UpdateBin(c.Request.Context(), c.Param("id"), patch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *api) deleteBin(c *gin.Context) {
	if err := h.svc.Admin.DeleteBin(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *api) seed(c *gin.Context) {
	n, err := h.svc.Admin.Seed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "bins": n})
}

func (h *api) reset(c *gin.Context) {
	if err := h.svc.Admin.Reset(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
