package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ownerRepo "vetbook/database/repository/owner"
	"vetbook/models"
	"vetbook/utils"
)

// OwnerHandler serves pet-owner CRUD.
type OwnerHandler struct {
	Repo   ownerRepo.OwnerRepository
	Logger *zap.Logger
}

func NewOwnerHandler(repo ownerRepo.OwnerRepository, logger *zap.Logger) *OwnerHandler {
	return &OwnerHandler{Repo: repo, Logger: logger}
}

func (h *OwnerHandler) List(c *gin.Context) {
	owners, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to list owners", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list owners", "please try again later")
		return
	}
	c.JSON(http.StatusOK, gin.H{"owners": owners, "count": len(owners)})
}

func (h *OwnerHandler) Get(c *gin.Context) {
	owner, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Logger.Error("failed to fetch owner", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch owner", "please try again later")
		return
	}
	if owner == nil {
		utils.JSONError(c, http.StatusNotFound, "owner not found", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, owner)
}

func (h *OwnerHandler) Create(c *gin.Context) {
	var owner models.PetOwner
	if err := c.ShouldBindJSON(&owner); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid owner payload", err.Error())
		return
	}
	if err := h.Repo.Create(c.Request.Context(), &owner); err != nil {
		h.Logger.Error("failed to create owner", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to create owner", "please try again later")
		return
	}
	c.JSON(http.StatusCreated, owner)
}

func (h *OwnerHandler) Update(c *gin.Context) {
	var owner models.PetOwner
	if err := c.ShouldBindJSON(&owner); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid owner payload", err.Error())
		return
	}
	owner.ID = c.Param("id")
	if err := h.Repo.Update(c.Request.Context(), &owner); err != nil {
		h.Logger.Error("failed to update owner", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to update owner", "please try again later")
		return
	}
	c.JSON(http.StatusOK, owner)
}

func (h *OwnerHandler) Delete(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Logger.Error("failed to delete owner", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to delete owner", "please try again later")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
