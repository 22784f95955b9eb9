package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
)

// voucherConfigHandler handles HTTP requests for voucher type configurations.
type voucherConfigHandler struct {
	configService portssvc.VoucherConfigSvcFacade
}

// RegisterVoucherConfigRoutes registers configuration routes on an organization-scoped group.
func RegisterVoucherConfigRoutes(rg *gin.RouterGroup, configService portssvc.VoucherConfigSvcFacade) {
	h := &voucherConfigHandler{configService: configService}

	configs := rg.Group("/voucher-configs")
	{
		configs.GET("", h.listConfigs)
		configs.GET("/:code", h.getConfig)
		configs.PUT("/:code", h.saveConfig)
		configs.DELETE("/:code", h.deactivateConfig)
		configs.GET("/:code/schema", h.resolveSchema)
	}
}

// listConfigs godoc
// @Summary List voucher types
// @Tags voucher-configs
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   includeInactive query bool false "Include deactivated voucher types"
// @Success 200 {object} dto.ListVoucherConfigsResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Security BearerAuth
// @Router /organizations/{organization_id}/voucher-configs [get]
func (h *voucherConfigHandler) listConfigs(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	includeInactive := false
	if raw := c.Query("includeInactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		includeInactive = v
	}

	configs, err := h.configService.ListConfigs(c.Request.Context(), c.Param("organization_id"), includeInactive)
	if err != nil {
		respondError(c, err, "Failed to list voucher types")
		return
	}
	c.JSON(http.StatusOK, dto.ListVoucherConfigsResponse{Configs: configs})
}

// getConfig godoc
// @Summary Get a voucher type
// @Tags voucher-configs
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   code path string true "Voucher type code"
// @Success 200 {object} domain.VoucherTypeConfig
// @Failure 404 {object} ErrorResponse "Voucher type not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/voucher-configs/{code} [get]
func (h *voucherConfigHandler) getConfig(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	cfg, err := h.configService.GetConfig(c.Request.Context(), c.Param("organization_id"), c.Param("code"))
	if err != nil {
		respondError(c, err, "Failed to retrieve voucher type")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// saveConfig godoc
// @Summary Create or update a voucher type
// @Description Creates the voucher type at version 1, or updates it when expectedVersion matches the stored version.
// @Tags voucher-configs
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   code path string true "Voucher type code"
// @Param   config body dto.SaveVoucherConfigRequest true "Voucher type definition"
// @Success 200 {object} domain.VoucherTypeConfig
// @Failure 400 {object} ErrorResponse "Invalid definition"
// @Failure 409 {object} ErrorResponse "Version mismatch"
// @Failure 422 {object} ErrorResponse "Schema configuration error"
// @Security BearerAuth
// @Router /organizations/{organization_id}/voucher-configs/{code} [put]
func (h *voucherConfigHandler) saveConfig(c *gin.Context) {
	var req dto.SaveVoucherConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	cfg, err := h.configService.SaveConfig(c.Request.Context(), c.Param("organization_id"), c.Param("code"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to save voucher type")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Voucher type saved",
		slog.String("code", cfg.Code), slog.Int("version", cfg.Version))
	c.JSON(http.StatusOK, cfg)
}

// deactivateConfig godoc
// @Summary Deactivate a voucher type
// @Tags voucher-configs
// @Param   organization_id path string true "Organization ID"
// @Param   code path string true "Voucher type code"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Voucher type not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/voucher-configs/{code} [delete]
func (h *voucherConfigHandler) deactivateConfig(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.configService.DeactivateConfig(c.Request.Context(), c.Param("organization_id"), c.Param("code"), userID); err != nil {
		respondError(c, err, "Failed to deactivate voucher type")
		return
	}
	c.Status(http.StatusNoContent)
}

// resolveSchema godoc
// @Summary Get the effective form schema of a voucher type
// @Description Returns header and line fields with the organization's overrides and user-defined fields applied.
// @Tags voucher-configs
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   code path string true "Voucher type code"
// @Success 200 {object} dto.SchemaResponse
// @Failure 404 {object} ErrorResponse "Voucher type not found"
// @Failure 422 {object} ErrorResponse "Voucher type inactive or misconfigured"
// @Security BearerAuth
// @Router /organizations/{organization_id}/voucher-configs/{code}/schema [get]
func (h *voucherConfigHandler) resolveSchema(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	resolved, err := h.configService.ResolveSchema(c.Request.Context(), c.Param("organization_id"), c.Param("code"))
	if err != nil {
		respondError(c, err, "Failed to resolve schema")
		return
	}
	c.JSON(http.StatusOK, resolved)
}
