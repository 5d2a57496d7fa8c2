package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/internal/domain/entities"
)

// ClientConfig is the public configuration the SPA boots with
type ClientConfig struct {
	WalletAPIKey   string           `json:"walletApiKey"`
	DefaultChainID int64            `json:"defaultChainId"`
	ChainName      string           `json:"chainName"`
	DefaultToken   string           `json:"defaultToken"`
	Tokens         []entities.Token `json:"tokens"`
	AppOrigin      string           `json:"appOrigin"`
	CallbackURL    string           `json:"callbackUrl"`
}

type ConfigHandler struct {
	config ClientConfig
}

func NewConfigHandler(config ClientConfig) *ConfigHandler {
	if config.ChainName == "" {
		config.ChainName = entities.ChainName(config.DefaultChainID)
	}
	return &ConfigHandler{config: config}
}

// GetConfig GET /api/v1/config
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.config)
}
