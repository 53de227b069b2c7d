package http_handlers

import (
	"net/http"

	"github.com/baechuer/admin-portal/internal/config"
	"github.com/baechuer/admin-portal/internal/transport/http/response"
)

type ConfigCheckView struct {
	Notifier       string                `json:"notifier"`
	DeliveryPolicy string                `json:"deliveryPolicy"`
	Ready          bool                  `json:"ready"`
	Settings       []config.RelaySetting `json:"settings"`
	Missing        []string              `json:"missing,omitempty"`
}

// ConfigCheckHandler reports which relay settings are present. Values are
// never echoed.
type ConfigCheckHandler struct {
	cfg *config.Config
}

func NewConfigCheckHandler(cfg *config.Config) *ConfigCheckHandler {
	return &ConfigCheckHandler{cfg: cfg}
}

func (h *ConfigCheckHandler) ConfigCheck(w http.ResponseWriter, r *http.Request) {
	missing := h.cfg.MissingRelaySettings()
	settings := h.cfg.RelaySettings()
	if settings == nil {
		settings = []config.RelaySetting{}
	}
	response.OK(w, ConfigCheckView{
		Notifier:       h.cfg.Notifier,
		DeliveryPolicy: string(h.cfg.DeliveryPolicy),
		Ready:          len(missing) == 0,
		Settings:       settings,
		Missing:        missing,
	})
}
