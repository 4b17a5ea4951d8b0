package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/audioproof/audioproof/config"
	"github.com/audioproof/audioproof/relay"
	"github.com/audioproof/audioproof/utils"
)

// ConfigController serves the dynamic configuration the UI needs before it can
// build an upload form.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetUIConfig returns upload limits and the accepted orientation values.
func (c *ConfigController) GetUIConfig(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"max_upload_mb":       cfg.MaxUploadMB,
		"default_orientation": relay.OrientationBalanced,
		"orientations": []relay.Orientation{
			relay.OrientationAI,
			relay.OrientationBalanced,
			relay.OrientationHuman,
		},
	})
}
