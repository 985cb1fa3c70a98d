package api

import (
	"net/http"
	"os"

	"github.com/chefcloud/nimbus_backend/models"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Organization models.NewOrganization `json:"organization" binding:"required"`
	Email        string                 `json:"email" binding:"required,email"`
	Name         string                 `json:"name"`
	Password     string                 `json:"password" binding:"required,min=8"`
}

// RegisterOrganizationHandler provisions a new organization plus its owner
// account. Disabled unless ALLOW_REGISTRATION=true; production deployments
// provision through seed-admin instead.
func RegisterOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if os.Getenv("ALLOW_REGISTRATION") != "true" {
			c.JSON(http.StatusForbidden, gin.H{"error": "registration is disabled"})
			return
		}

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		org, err := models.CreateOrganization(ctx, &req.Organization)
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := models.CreateUser(ctx, &models.NewUser{
			OrganizationId: org.ID,
			Email:          req.Email,
			Name:           req.Name,
			Password:       req.Password,
			Role:           models.UserRoleOwner,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data": gin.H{
				"organization": org,
				"owner":        user,
			},
		})
	}
}
